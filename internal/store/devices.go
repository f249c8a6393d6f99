package store

import (
	"context"
	"database/sql"

	"github.com/netsecio/netsecd/internal/models"
)

// InsertDevice inserts a new device row.
func (s *Store) InsertDevice(ctx context.Context, d *models.Device) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, ip, mac, hostname, vendor, os_family, os_version, device_type, classification_confidence, status, notes, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.IP, d.MAC, d.Hostname, d.Vendor, d.OSFamily, d.OSVersion,
		string(d.DeviceType), d.ClassificationConfidence, string(d.Status), d.Notes,
		formatTime(d.FirstSeen), formatTime(d.LastSeen),
	)
	return wrapf("insert device %s", err, d.IP)
}

// UpdateDevice updates every mutable field of an existing device row.
func (s *Store) UpdateDevice(ctx context.Context, d *models.Device) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET ip=?, mac=?, hostname=?, vendor=?, os_family=?, os_version=?,
			device_type=?, classification_confidence=?, status=?, notes=?, last_seen=?
		WHERE id=?`,
		d.IP, d.MAC, d.Hostname, d.Vendor, d.OSFamily, d.OSVersion,
		string(d.DeviceType), d.ClassificationConfidence, string(d.Status), d.Notes,
		formatTime(d.LastSeen), d.ID,
	)
	if err != nil {
		return wrapf("update device %s", err, d.ID)
	}
	return checkRowsAffected(res, "device", d.ID)
}

// GetDeviceByID fetches a device by its id.
func (s *Store) GetDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	return scanDevice(row)
}

// GetDeviceByIP fetches a device by its unique IP address.
func (s *Store) GetDeviceByIP(ctx context.Context, ip string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE ip = ?`, ip)
	return scanDevice(row)
}

// GetDeviceByMAC fetches a device by hardware address.
func (s *Store) GetDeviceByMAC(ctx context.Context, mac string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE mac = ?`, mac)
	return scanDevice(row)
}

// ListDevices returns devices ordered by most recently seen.
func (s *Store) ListDevices(ctx context.Context, limit, offset int) ([]*models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY last_seen DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, wrapf("list devices", err)
	}
	defer rows.Close()

	var out []*models.Device
	for rows.Next() {
		d, err := scanDeviceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, wrapf("list devices", rows.Err())
}

// DeleteDevice removes a device row; ports/vulnerabilities/events/observations
// cascade via foreign keys.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return wrapf("delete device %s", err, id)
	}
	return checkRowsAffected(res, "device", id)
}

const deviceColumns = `id, ip, mac, hostname, vendor, os_family, os_version, device_type, classification_confidence, status, notes, first_seen, last_seen`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row *sql.Row) (*models.Device, error) {
	d, err := scanDeviceRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func scanDeviceRows(rows *sql.Rows) (*models.Device, error) {
	return scanDeviceRow(rows)
}

func scanDeviceRow(rs rowScanner) (*models.Device, error) {
	var d models.Device
	var deviceType, status, firstSeen, lastSeen string
	err := rs.Scan(&d.ID, &d.IP, &d.MAC, &d.Hostname, &d.Vendor, &d.OSFamily, &d.OSVersion,
		&deviceType, &d.ClassificationConfidence, &status, &d.Notes, &firstSeen, &lastSeen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, wrapStoreErr("scan device row", err)
	}
	d.DeviceType = models.DeviceType(deviceType)
	d.Status = models.DeviceStatus(status)
	d.FirstSeen = parseTime(firstSeen)
	d.LastSeen = parseTime(lastSeen)
	return &d, nil
}
