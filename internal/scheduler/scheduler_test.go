package scheduler

import (
	"testing"
	"time"
)

func TestParseIntervalArgsValid(t *testing.T) {
	d, err := ParseIntervalArgs(`{"interval_secs": 3600}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != time.Hour {
		t.Errorf("got %v, want 1h", d)
	}
}

func TestParseIntervalArgsInvalidJSON(t *testing.T) {
	if _, err := ParseIntervalArgs("not json"); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestParseIntervalArgsMissingField(t *testing.T) {
	if _, err := ParseIntervalArgs("{}"); err == nil {
		t.Error("expected an error for missing interval_secs")
	}
}

func TestIsIntervalDueNoLastRun(t *testing.T) {
	if !IsIntervalDue(nil, time.Hour, time.Now()) {
		t.Error("a job that has never run should be due")
	}
}

func TestIsIntervalDueNotYet(t *testing.T) {
	now := time.Now()
	if IsIntervalDue(&now, time.Hour, now) {
		t.Error("a job that just ran should not be due")
	}
}

func TestIsIntervalDuePast(t *testing.T) {
	now := time.Now()
	twoHoursAgo := now.Add(-2 * time.Hour)
	if !IsIntervalDue(&twoHoursAgo, time.Hour, now) {
		t.Error("a job overdue by an hour should be due")
	}
}

func TestParseCronArgsValid(t *testing.T) {
	expr, err := ParseCronArgs(`{"cron": "0 * * * *"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "0 * * * *" {
		t.Errorf("got %q", expr)
	}
}

func TestParseCronArgsMissingField(t *testing.T) {
	if _, err := ParseCronArgs("{}"); err == nil {
		t.Error("expected an error for missing cron field")
	}
}

func TestIsCronDueEveryMinute(t *testing.T) {
	if !IsCronDue("* * * * *", time.Now()) {
		t.Error("* * * * * should always be due")
	}
}

func TestIsCronDueHourly(t *testing.T) {
	atZero := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)
	if !IsCronDue("0 * * * *", atZero) {
		t.Error("expected due at minute 0")
	}

	atThirty := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	if IsCronDue("0 * * * *", atThirty) {
		t.Error("expected not due at minute 30")
	}
}

func TestIsCronDueRejectsNonWildcardDayOfMonth(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if IsCronDue("0 0 15 * *", now) {
		t.Error("non-wildcard day-of-month should never be due")
	}
}

func TestIsCronDueMalformed(t *testing.T) {
	if IsCronDue("not a cron expr", time.Now()) {
		t.Error("malformed expression should never be due")
	}
}
