package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/netsecio/netsecd/internal/models"
)

const scanColumns = `id, scan_type, tool, target, status, progress, parameters, results, started_at, completed_at, created_at`

// InsertScan inserts a new scan row.
func (s *Store) InsertScan(ctx context.Context, sc *models.Scan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (`+scanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, string(sc.ScanType), sc.Tool, sc.Target, string(sc.Status), sc.Progress,
		sc.Parameters, sc.Results, formatTimePtr(sc.StartedAt), formatTimePtr(sc.CompletedAt),
		formatTime(sc.CreatedAt),
	)
	return wrapf("insert scan %s", err, sc.ID)
}

// GetScanByID fetches a scan by id.
func (s *Store) GetScanByID(ctx context.Context, id string) (*models.Scan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	return scanScan(row)
}

// ListScans returns scans ordered by most recently created.
func (s *Store) ListScans(ctx context.Context, limit, offset int) ([]*models.Scan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scanColumns+` FROM scans ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, wrapf("list scans", err)
	}
	defer rows.Close()

	var out []*models.Scan
	for rows.Next() {
		sc, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, wrapf("list scans", rows.Err())
}

// UpdateScanStatus updates status and progress for a running/transitioning scan.
func (s *Store) UpdateScanStatus(ctx context.Context, id string, status models.ScanStatus, progress float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE scans SET status=?, progress=? WHERE id=?`,
		string(status), progress, id)
	if err != nil {
		return wrapf("update scan status %s", err, id)
	}
	return checkRowsAffected(res, "scan", id)
}

// CompleteScan marks a scan completed, attaching its result summary.
func (s *Store) CompleteScan(ctx context.Context, id, results string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET results=?, status='completed', progress=1.0, completed_at=? WHERE id=?`,
		results, formatTime(completedAt), id)
	if err != nil {
		return wrapf("complete scan %s", err, id)
	}
	return checkRowsAffected(res, "scan", id)
}

// FailScan marks a scan failed without rolling back any devices/ports
// already discovered before the failure.
func (s *Store) FailScan(ctx context.Context, id string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status='failed', completed_at=? WHERE id=?`,
		formatTime(completedAt), id)
	if err != nil {
		return wrapf("fail scan %s", err, id)
	}
	return checkRowsAffected(res, "scan", id)
}

// DeleteScan removes a scan row by id.
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return wrapf("delete scan %s", err, id)
	}
	return checkRowsAffected(res, "scan", id)
}

func scanScan(row *sql.Row) (*models.Scan, error) {
	sc, err := scanScanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sc, err
}

func scanScanRow(rs rowScanner) (*models.Scan, error) {
	var sc models.Scan
	var scanType, status, createdAt string
	var startedAt, completedAt sql.NullString
	err := rs.Scan(&sc.ID, &scanType, &sc.Tool, &sc.Target, &status, &sc.Progress,
		&sc.Parameters, &sc.Results, &startedAt, &completedAt, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, wrapStoreErr("scan scan row", err)
	}
	sc.ScanType = models.ScanType(scanType)
	sc.Status = models.ScanStatus(status)
	sc.CreatedAt = parseTime(createdAt)
	sc.StartedAt = parseTimePtr(startedAt)
	sc.CompletedAt = parseTimePtr(completedAt)
	return &sc, nil
}
