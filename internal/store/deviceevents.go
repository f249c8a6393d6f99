package store

import (
	"context"

	"github.com/netsecio/netsecd/internal/models"
)

// InsertDeviceEvent writes a device lifecycle event row.
func (s *Store) InsertDeviceEvent(ctx context.Context, e *models.DeviceEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_events (id, device_id, event_type, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.DeviceID, e.EventType, e.Data, formatTime(e.CreatedAt),
	)
	return wrapf("insert device event %s", err, e.ID)
}

// ListDeviceEvents returns the most recent events for a device.
func (s *Store) ListDeviceEvents(ctx context.Context, deviceID string, limit int) ([]*models.DeviceEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, event_type, data, created_at FROM device_events WHERE device_id = ? ORDER BY created_at DESC LIMIT ?`,
		deviceID, limit)
	if err != nil {
		return nil, wrapf("list device events for %s", err, deviceID)
	}
	defer rows.Close()

	var out []*models.DeviceEvent
	for rows.Next() {
		var e models.DeviceEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.EventType, &e.Data, &createdAt); err != nil {
			return nil, wrapStoreErr("scan device event row", err)
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, &e)
	}
	return out, wrapf("list device events for %s", rows.Err(), deviceID)
}
