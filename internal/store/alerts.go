package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/netsecio/netsecd/internal/models"
)

const alertColumns = `id, severity, status, source_tool, category, title, description, device_ip, fingerprint, correlation_id, count, created_at, updated_at`

// InsertAlert inserts a new alert row.
func (s *Store) InsertAlert(ctx context.Context, a *models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Severity), string(a.Status), a.SourceTool, a.Category, a.Title,
		a.Description, a.DeviceIP, a.Fingerprint, a.CorrelationID, a.Count,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return wrapf("insert alert %s", err, a.ID)
}

// GetAlertByID fetches an alert by id.
func (s *Store) GetAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	return scanAlert(row)
}

// GetAlertByFingerprint fetches the most recent alert with the given
// fingerprint, used by the pipeline's deduplicate stage.
func (s *Store) GetAlertByFingerprint(ctx context.Context, fingerprint string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1`,
		fingerprint)
	return scanAlert(row)
}

// ListAlertsByDeviceSince returns alerts targeting deviceIP created at or
// after since, ordered oldest first — the correlation stage's candidate set.
func (s *Store) ListAlertsByDeviceSince(ctx context.Context, deviceIP string, since time.Time) ([]*models.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE device_ip = ? AND created_at >= ? ORDER BY created_at ASC`,
		deviceIP, formatTime(since))
	if err != nil {
		return nil, wrapf("list alerts for device %s", err, deviceIP)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, wrapf("list alerts for device %s", rows.Err(), deviceIP)
}

// ListAlerts returns alerts ordered by most recently created.
func (s *Store) ListAlerts(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, wrapf("list alerts", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, wrapf("list alerts", rows.Err())
}

// IncrementAlertCount atomically increments count and bumps updated_at —
// the dedup stage's "existing fingerprint" path.
func (s *Store) IncrementAlertCount(ctx context.Context, id string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET count = count + 1, updated_at = ? WHERE id = ?`,
		formatTime(updatedAt), id)
	if err != nil {
		return wrapf("increment alert count %s", err, id)
	}
	return checkRowsAffected(res, "alert", id)
}

// SetAlertCorrelationID backfills a correlation id onto an existing alert.
func (s *Store) SetAlertCorrelationID(ctx context.Context, id, correlationID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET correlation_id = ? WHERE id = ?`, correlationID, id)
	if err != nil {
		return wrapf("set correlation id for alert %s", err, id)
	}
	return checkRowsAffected(res, "alert", id)
}

// UpdateAlertStatus transitions an alert's status.
func (s *Store) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET status=?, updated_at=? WHERE id=?`,
		string(status), formatTime(updatedAt), id)
	if err != nil {
		return wrapf("update alert status %s", err, id)
	}
	return checkRowsAffected(res, "alert", id)
}

// DeleteAlert removes an alert row by id.
func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return wrapf("delete alert %s", err, id)
	}
	return checkRowsAffected(res, "alert", id)
}

// CountAlerts returns the total number of alert rows.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n)
	return n, wrapf("count alerts", err)
}

func scanAlert(row *sql.Row) (*models.Alert, error) {
	a, err := scanAlertRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func scanAlertRow(rs rowScanner) (*models.Alert, error) {
	var a models.Alert
	var severity, status, createdAt, updatedAt string
	err := rs.Scan(&a.ID, &severity, &status, &a.SourceTool, &a.Category, &a.Title,
		&a.Description, &a.DeviceIP, &a.Fingerprint, &a.CorrelationID, &a.Count,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, wrapStoreErr("scan alert row", err)
	}
	a.Severity = models.Severity(severity)
	a.Status = models.AlertStatus(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
