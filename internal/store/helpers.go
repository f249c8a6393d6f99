package store

import (
	"database/sql"
	"time"

	"github.com/netsecio/netsecd/internal/necerr"
)

// formatTime renders a timestamp as RFC3339 UTC, the on-disk convention for
// every timestamp column.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// formatTimePtr is formatTime for optional timestamps.
func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime parses an RFC3339 timestamp, returning the zero time for
// anything that fails to parse (defensive against legacy or malformed
// rows rather than panicking).
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimePtr parses an optional timestamp column.
func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return necerr.Wrap(necerr.KindStore, "rows affected", err)
	}
	if n == 0 {
		return necerr.New(necerr.KindNotFound, kind+" "+id)
	}
	return nil
}
