package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/store"
)

// Config holds the pipeline's tunables, sourced from the alerts section of
// the daemon config.
type Config struct {
	CriticalPorts      []int
	CorrelationWindow  time.Duration
	MaxAlertsPerMinute int
	WebhookURL         string
}

// Pipeline wires normalize -> dedup -> score -> correlate -> dispatch into
// a single entry point. It is safe for concurrent use by multiple scanner
// and passive-listener goroutines.
type Pipeline struct {
	store   *store.Store
	targets []DispatchTarget
	cfg     Config

	limiter *rateLimiter
}

// New builds a Pipeline with the database, event bus, and log dispatch
// targets wired in that order (database first, since its failure should
// stop the alert from reaching the bus or the log).
func New(st *store.Store, bus *eventbus.Bus, cfg Config) *Pipeline {
	targets := []DispatchTarget{
		DatabaseTarget{Store: st},
		EventBusTarget{Bus: bus},
		LogTarget{},
	}
	if cfg.WebhookURL != "" {
		targets = append(targets, WebhookTarget{URL: cfg.WebhookURL})
	}
	return &Pipeline{
		store:   st,
		targets: targets,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.MaxAlertsPerMinute),
	}
}

// Process runs a single normalized alert through the full pipeline: dedup,
// rate-limit, score, correlate, dispatch. It returns the persisted (or
// count-incremented) Alert, or nil with a nil error when the rate limiter
// drops the alert.
func (p *Pipeline) Process(ctx context.Context, na *models.NormalizedAlert) (*models.Alert, error) {
	dedup, err := Deduplicate(ctx, p.store, na)
	if err != nil {
		return nil, err
	}
	if dedup.IsDuplicate() {
		return dedup.Existing, nil
	}

	if !p.limiter.Allow(models.Now()) {
		log.Printf("[pipeline] dropping alert, rate limit exceeded: fingerprint=%s", na.Fingerprint)
		return nil, nil
	}

	severity := Score(na, p.cfg.CriticalPorts)

	correlationID, err := Correlate(ctx, p.store, na, p.cfg.CorrelationWindow)
	if err != nil {
		return nil, err
	}

	return Dispatch(ctx, na, severity, correlationID, p.targets)
}

// rateLimiter is a simple per-minute sliding counter: it tracks dispatch
// timestamps in the trailing 60 seconds and rejects once the configured
// cap is reached. A cap of 0 or less disables limiting.
type rateLimiter struct {
	mu         sync.Mutex
	limit      int
	timestamps []time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit}
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-time.Minute)
	kept := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.timestamps = kept

	if len(r.timestamps) >= r.limit {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}
