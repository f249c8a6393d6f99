package pipeline

import (
	"context"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/store"
)

// DedupResult is the outcome of the deduplication stage.
type DedupResult struct {
	// Existing is non-nil when a prior alert (of any status) with the same
	// fingerprint was found; its count has already been incremented in the
	// store.
	Existing *models.Alert
}

// IsDuplicate reports whether the deduplication stage matched an existing
// alert.
func (r DedupResult) IsDuplicate() bool { return r.Existing != nil }

// Deduplicate looks up an existing alert by fingerprint. If one is found
// its count is incremented in place and returned; otherwise a zero
// DedupResult is returned so the caller proceeds to score/correlate/dispatch.
func Deduplicate(ctx context.Context, st *store.Store, alert *models.NormalizedAlert) (DedupResult, error) {
	existing, err := st.GetAlertByFingerprint(ctx, alert.Fingerprint)
	if err != nil {
		return DedupResult{}, err
	}
	if existing == nil {
		return DedupResult{}, nil
	}

	now := models.Now()
	if err := st.IncrementAlertCount(ctx, existing.ID, now); err != nil {
		return DedupResult{}, err
	}
	existing.Count++
	existing.UpdatedAt = now

	return DedupResult{Existing: existing}, nil
}
