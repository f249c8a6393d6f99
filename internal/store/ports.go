package store

import (
	"context"
	"database/sql"

	"github.com/netsecio/netsecd/internal/models"
)

const portColumns = `id, device_id, port_number, protocol, state, service_name, service_version, banner, first_seen, last_seen`

// InsertPort inserts a new port row.
func (s *Store) InsertPort(ctx context.Context, p *models.Port) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ports (`+portColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DeviceID, p.PortNumber, p.Protocol, p.State, p.ServiceName, p.ServiceVersion,
		p.Banner, formatTime(p.FirstSeen), formatTime(p.LastSeen),
	)
	return wrapf("insert port %d/%s", err, p.PortNumber, p.Protocol)
}

// UpsertPort inserts a port, or if (device, port, protocol) already exists,
// overwrites state/service/banner/last_seen while preserving first_seen.
func (s *Store) UpsertPort(ctx context.Context, p *models.Port) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ports (`+portColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, port_number, protocol) DO UPDATE SET
			state = excluded.state,
			service_name = excluded.service_name,
			service_version = excluded.service_version,
			banner = excluded.banner,
			last_seen = excluded.last_seen`,
		p.ID, p.DeviceID, p.PortNumber, p.Protocol, p.State, p.ServiceName, p.ServiceVersion,
		p.Banner, formatTime(p.FirstSeen), formatTime(p.LastSeen),
	)
	return wrapf("upsert port %d/%s", err, p.PortNumber, p.Protocol)
}

// GetPortByDevicePortProto fetches a port by its natural key.
func (s *Store) GetPortByDevicePortProto(ctx context.Context, deviceID string, portNumber int, protocol string) (*models.Port, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+portColumns+` FROM ports WHERE device_id = ? AND port_number = ? AND protocol = ?`,
		deviceID, portNumber, protocol)
	return scanPort(row)
}

// ListPortsByDevice returns every port belonging to a device, ordered by
// port number.
func (s *Store) ListPortsByDevice(ctx context.Context, deviceID string) ([]*models.Port, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+portColumns+` FROM ports WHERE device_id = ? ORDER BY port_number`, deviceID)
	if err != nil {
		return nil, wrapf("list ports for device %s", err, deviceID)
	}
	defer rows.Close()

	var out []*models.Port
	for rows.Next() {
		p, err := scanPortRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, wrapf("list ports for device %s", rows.Err(), deviceID)
}

// DeletePort removes a port row by id.
func (s *Store) DeletePort(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ports WHERE id = ?`, id)
	if err != nil {
		return wrapf("delete port %s", err, id)
	}
	return checkRowsAffected(res, "port", id)
}

func scanPort(row *sql.Row) (*models.Port, error) {
	p, err := scanPortRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPortRow(rs rowScanner) (*models.Port, error) {
	var p models.Port
	var firstSeen, lastSeen string
	err := rs.Scan(&p.ID, &p.DeviceID, &p.PortNumber, &p.Protocol, &p.State,
		&p.ServiceName, &p.ServiceVersion, &p.Banner, &firstSeen, &lastSeen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, wrapStoreErr("scan port row", err)
	}
	p.FirstSeen = parseTime(firstSeen)
	p.LastSeen = parseTime(lastSeen)
	return &p, nil
}
