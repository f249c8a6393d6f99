// Package scheduler runs the tick-based dispatch loop that turns enabled
// scheduled_jobs rows into scan.started events at their interval or cron
// trigger times.
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/store"
)

// ParseIntervalArgs parses interval trigger_args JSON, `{"interval_secs": 3600}`.
func ParseIntervalArgs(args string) (time.Duration, error) {
	var parsed struct {
		IntervalSecs *int64 `json:"interval_secs"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return 0, necerr.Wrap(necerr.KindConfiguration, "invalid trigger args", err)
	}
	if parsed.IntervalSecs == nil {
		return 0, necerr.New(necerr.KindConfiguration, "missing or invalid 'interval_secs' field")
	}
	return time.Duration(*parsed.IntervalSecs) * time.Second, nil
}

// IsIntervalDue reports whether an interval job is due: true if it has
// never run (lastRun is nil), or if the elapsed time since lastRun meets or
// exceeds interval.
func IsIntervalDue(lastRun *time.Time, interval time.Duration, now time.Time) bool {
	if lastRun == nil {
		return true
	}
	return now.Sub(*lastRun) >= interval
}

// ParseCronArgs parses cron trigger_args JSON, `{"cron": "0 * * * *"}`.
func ParseCronArgs(args string) (string, error) {
	var parsed struct {
		Cron *string `json:"cron"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", necerr.Wrap(necerr.KindConfiguration, "invalid trigger args", err)
	}
	if parsed.Cron == nil {
		return "", necerr.New(necerr.KindConfiguration, "missing or invalid 'cron' field")
	}
	return *parsed.Cron, nil
}

// IsCronDue evaluates a restricted 5-field cron expression against now.
//
// Only the minute, hour, and day-of-week fields are matched against real
// values; each must be "*" or a single non-negative integer. The
// day-of-month and month fields must be "*" — any other value makes the
// job permanently non-due, since this scheduler deliberately doesn't
// implement the full cron grammar (day-of-month/month lists, ranges, and
// step values are out of scope).
func IsCronDue(cronExpr string, now time.Time) bool {
	parts := strings.Fields(strings.TrimSpace(cronExpr))
	if len(parts) != 5 {
		return false
	}

	minuteMatch := fieldMatches(parts[0], now.Minute())
	hourMatch := fieldMatches(parts[1], now.Hour())
	domMatch := parts[2] == "*"
	monthMatch := parts[3] == "*"
	dowMatch := fieldMatches(parts[4], int(now.Weekday()))

	return minuteMatch && hourMatch && domMatch && monthMatch && dowMatch
}

func fieldMatches(field string, value int) bool {
	if field == "*" {
		return true
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return false
	}
	return n == value
}

// Scheduler queries enabled scheduled_jobs on every tick and publishes a
// scan.started event for each one found due.
type Scheduler struct {
	store        *store.Store
	bus          *eventbus.Bus
	tickInterval time.Duration

	mu       sync.Mutex
	lastRuns map[string]time.Time

	stopped  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Scheduler with the given tick interval.
func New(st *store.Store, bus *eventbus.Bus, tickInterval time.Duration) *Scheduler {
	return &Scheduler{
		store:        st,
		bus:          bus,
		tickInterval: tickInterval,
		lastRuns:     make(map[string]time.Time),
		stopped:      make(chan struct{}),
	}
}

// Start runs the tick loop in a background goroutine until Shutdown is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopped:
				log.Printf("[scheduler] shutting down")
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	jobs, err := s.store.ListEnabledScheduledJobs(ctx)
	if err != nil {
		log.Printf("[scheduler] failed to query jobs: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, job := range jobs {
		if s.dispatchIfDue(job, now) {
			log.Printf("[scheduler] dispatched job %s: %s", job.ID, job.TaskType)
		}
	}
}

func (s *Scheduler) dispatchIfDue(job *models.ScheduledJob, now time.Time) bool {
	due, err := s.isDue(job, now)
	if err != nil {
		log.Printf("[scheduler] invalid trigger args for job %s: %v", job.ID, err)
		return false
	}
	if !due {
		return false
	}

	s.bus.Publish(eventbus.Event{
		Type:      eventbus.EventScanStarted,
		ID:        models.NewID(),
		Timestamp: now,
		Source:    "scheduler",
		Data: map[string]any{
			"job_id":      job.ID,
			"task_type":   job.TaskType,
			"task_params": job.TaskParams,
		},
	})

	s.mu.Lock()
	s.lastRuns[job.ID] = now
	s.mu.Unlock()

	return true
}

func (s *Scheduler) isDue(job *models.ScheduledJob, now time.Time) (bool, error) {
	switch job.TriggerType {
	case models.TriggerInterval:
		interval, err := ParseIntervalArgs(job.TriggerArgs)
		if err != nil {
			return false, err
		}
		s.mu.Lock()
		last, ok := s.lastRuns[job.ID]
		s.mu.Unlock()
		// last_run lives only in this in-memory map, never the store: a
		// restart clears it, so every interval job fires on its first
		// eligible tick after the daemon comes back up.
		var lastPtr *time.Time
		if ok {
			lastPtr = &last
		}
		return IsIntervalDue(lastPtr, interval, now), nil
	case models.TriggerCron:
		expr, err := ParseCronArgs(job.TriggerArgs)
		if err != nil {
			return false, err
		}
		return IsCronDue(expr, now), nil
	default:
		return false, nil
	}
}

// Shutdown signals the tick loop to stop and waits for it to exit. Safe to
// call more than once.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() { close(s.stopped) })
	s.wg.Wait()
}
