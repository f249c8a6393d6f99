package store

import (
	"context"

	"github.com/netsecio/netsecd/internal/models"
)

const vulnColumns = `id, device_id, cve_id, title, severity, description, remediation, first_seen, last_seen`

// InsertVulnerability inserts a new vulnerability row.
func (s *Store) InsertVulnerability(ctx context.Context, v *models.Vulnerability) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vulnerabilities (`+vulnColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.DeviceID, v.CVEID, v.Title, string(v.Severity), v.Description, v.Remediation,
		formatTime(v.FirstSeen), formatTime(v.LastSeen),
	)
	return wrapf("insert vulnerability %s", err, v.ID)
}

// ListVulnerabilitiesByDevice returns vulnerabilities attached to a device.
func (s *Store) ListVulnerabilitiesByDevice(ctx context.Context, deviceID string) ([]*models.Vulnerability, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+vulnColumns+` FROM vulnerabilities WHERE device_id = ? ORDER BY last_seen DESC`, deviceID)
	if err != nil {
		return nil, wrapf("list vulnerabilities for device %s", err, deviceID)
	}
	defer rows.Close()

	var out []*models.Vulnerability
	for rows.Next() {
		var v models.Vulnerability
		var severity, firstSeen, lastSeen string
		if err := rows.Scan(&v.ID, &v.DeviceID, &v.CVEID, &v.Title, &severity, &v.Description,
			&v.Remediation, &firstSeen, &lastSeen); err != nil {
			return nil, wrapStoreErr("scan vulnerability row", err)
		}
		v.Severity = models.Severity(severity)
		v.FirstSeen = parseTime(firstSeen)
		v.LastSeen = parseTime(lastSeen)
		out = append(out, &v)
	}
	return out, wrapf("list vulnerabilities for device %s", rows.Err(), deviceID)
}
