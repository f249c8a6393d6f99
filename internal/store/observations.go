package store

import (
	"context"

	"github.com/netsecio/netsecd/internal/models"
)

// InsertObservation writes a raw discovery-protocol evidence row.
func (s *Store) InsertObservation(ctx context.Context, o *models.Observation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (id, device_id, protocol, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.DeviceID, o.Protocol, o.Data, formatTime(o.CreatedAt),
	)
	return wrapf("insert observation %s", err, o.ID)
}

// ListObservationsByDevice returns the most recent observations for a device.
func (s *Store) ListObservationsByDevice(ctx context.Context, deviceID string, limit int) ([]*models.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, protocol, data, created_at FROM observations WHERE device_id = ? ORDER BY created_at DESC LIMIT ?`,
		deviceID, limit)
	if err != nil {
		return nil, wrapf("list observations for %s", err, deviceID)
	}
	defer rows.Close()

	var out []*models.Observation
	for rows.Next() {
		var o models.Observation
		var createdAt string
		if err := rows.Scan(&o.ID, &o.DeviceID, &o.Protocol, &o.Data, &createdAt); err != nil {
			return nil, wrapStoreErr("scan observation row", err)
		}
		o.CreatedAt = parseTime(createdAt)
		out = append(out, &o)
	}
	return out, wrapf("list observations for %s", rows.Err(), deviceID)
}
