package store

import (
	"context"
	"database/sql"

	"github.com/netsecio/netsecd/internal/models"
)

const jobColumns = `id, trigger_type, trigger_args, task_type, task_params, enabled, next_run, last_run, created_at`

// InsertScheduledJob inserts a new scheduled job row.
func (s *Store) InsertScheduledJob(ctx context.Context, j *models.ScheduledJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.TriggerType), j.TriggerArgs, j.TaskType, j.TaskParams, j.Enabled,
		formatTimePtr(j.NextRun), formatTimePtr(j.LastRun), formatTime(j.CreatedAt),
	)
	return wrapf("insert scheduled job %s", err, j.ID)
}

// ListEnabledScheduledJobs returns every job with enabled=true, the set the
// scheduler's tick loop evaluates on every tick.
func (s *Store) ListEnabledScheduledJobs(ctx context.Context) ([]*models.ScheduledJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM scheduled_jobs WHERE enabled = 1`)
	if err != nil {
		return nil, wrapf("list enabled scheduled jobs", err)
	}
	defer rows.Close()

	var out []*models.ScheduledJob
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, wrapf("list enabled scheduled jobs", rows.Err())
}

// DeleteScheduledJob removes a job row.
func (s *Store) DeleteScheduledJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = ?`, id)
	if err != nil {
		return wrapf("delete scheduled job %s", err, id)
	}
	return checkRowsAffected(res, "scheduled job", id)
}

func scanJobRow(rs rowScanner) (*models.ScheduledJob, error) {
	var j models.ScheduledJob
	var triggerType, createdAt string
	var nextRun, lastRun sql.NullString
	err := rs.Scan(&j.ID, &triggerType, &j.TriggerArgs, &j.TaskType, &j.TaskParams, &j.Enabled,
		&nextRun, &lastRun, &createdAt)
	if err != nil {
		return nil, wrapStoreErr("scan scheduled job row", err)
	}
	j.TriggerType = models.TriggerType(triggerType)
	j.CreatedAt = parseTime(createdAt)
	j.NextRun = parseTimePtr(nextRun)
	j.LastRun = parseTimePtr(lastRun)
	return &j, nil
}
