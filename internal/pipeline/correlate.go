package pipeline

import (
	"context"
	"time"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/store"
)

// Correlate determines a correlation id for an alert. It returns nil if
// the alert has no device IP. Otherwise it looks at recent alerts for the
// same device within the window:
//   - none found: mint a new id, this is the first alert in the group
//   - one already carries a correlation id: reuse it
//   - none carry one yet: mint a new id and backfill it onto every recent
//     alert found, so the whole window ends up in one group
func Correlate(ctx context.Context, st *store.Store, alert *models.NormalizedAlert, window time.Duration) (*string, error) {
	if alert.DeviceIP == nil {
		return nil, nil
	}

	since := models.Now().Add(-window)
	recent, err := st.ListAlertsByDeviceSince(ctx, *alert.DeviceIP, since)
	if err != nil {
		return nil, err
	}

	if len(recent) == 0 {
		cid := models.NewID()
		return &cid, nil
	}

	for _, r := range recent {
		if r.CorrelationID != nil {
			return r.CorrelationID, nil
		}
	}

	cid := models.NewID()
	now := models.Now()
	for _, r := range recent {
		if err := st.SetAlertCorrelationID(ctx, r.ID, cid); err != nil {
			return nil, err
		}
		r.CorrelationID = &cid
		r.UpdatedAt = now
	}

	return &cid, nil
}
