package models

import "time"

// TriggerType is the closed set of scheduled job trigger kinds.
type TriggerType string

const (
	TriggerInterval TriggerType = "interval"
	TriggerCron     TriggerType = "cron"
)

// ScheduledJob is a recurring task the scheduler dispatches as events.
type ScheduledJob struct {
	ID           string
	TriggerType  TriggerType
	TriggerArgs  string
	TaskType     string
	TaskParams   string
	Enabled      bool
	NextRun      *time.Time
	LastRun      *time.Time
	CreatedAt    time.Time
}
