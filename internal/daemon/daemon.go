// Package daemon wires the platform's subsystems — store, event bus,
// pipeline, active/passive scanners, scheduler, and plugin registry —
// into a single process and manages its startup, readiness signaling,
// and graceful shutdown.
package daemon

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/netsecio/netsecd/internal/config"
	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/passive"
	"github.com/netsecio/netsecd/internal/pipeline"
	"github.com/netsecio/netsecd/internal/platform"
	"github.com/netsecio/netsecd/internal/plugin"
	"github.com/netsecio/netsecd/internal/scanner"
	"github.com/netsecio/netsecd/internal/scheduler"
	"github.com/netsecio/netsecd/internal/sdnotify"
	"github.com/netsecio/netsecd/internal/store"
)

// shutdownDrainTimeout bounds how long Shutdown waits for background goroutines to
// exit cleanly after the shutdown signal before giving up.
const shutdownDrainTimeout = 30 * time.Second

// schedulerTick is how often the scheduler checks scheduled jobs for
// being due.
const schedulerTick = 10 * time.Second

// Daemon owns every long-running subsystem and coordinates their
// lifecycle.
type Daemon struct {
	cfg   *config.Config
	store *store.Store
	bus   eventbus.Bus

	pipeline   *pipeline.Pipeline
	active     *scanner.ActiveScanner
	passive    *passive.Scanner
	scheduler  *scheduler.Scheduler
	plugins    *plugin.Registry
	dispatcher *taskDispatcher

	stopped  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Daemon from config, opening the store and wiring every
// subsystem. It does not start any background goroutines — call Run for
// that.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	dsn := sqliteDSN(cfg.Database.URL)
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	pl := pipeline.New(st, &bus, pipeline.Config{
		CorrelationWindow:  5 * time.Minute,
		MaxAlertsPerMinute: cfg.Alerts.MaxAlertsPerMinute,
		WebhookURL:         cfg.Alerts.Dispatch.WebhookURL,
	})

	scanTimeout := time.Duration(cfg.Tools.ScanTimeout) * time.Second
	active := scanner.NewActiveScanner(st, &bus, pl, scanTimeout)

	d := &Daemon{
		cfg:        cfg,
		store:      st,
		bus:        bus,
		pipeline:   pl,
		active:     active,
		passive:    passive.NewScanner(st, &bus),
		scheduler:  scheduler.New(st, &bus, schedulerTick),
		plugins:    plugin.NewRegistry(),
		dispatcher: newTaskDispatcher(active, pl, st, bus),
		stopped:    make(chan struct{}),
	}

	log.Printf("[daemon] platform detected: %s", platform.Detect())
	log.Printf("[daemon] database ready: %s", dsn)

	return d, nil
}

// sqliteDSN converts a config database URL (e.g.
// "sqlite:///var/lib/netsecd/netsec.db") into the modernc.org/sqlite DSN
// store.Open expects. A bare path or an already-bare DSN passes through
// unchanged.
func sqliteDSN(url string) string {
	const prefix = "sqlite://"
	if strings.HasPrefix(url, prefix) {
		return "file:" + strings.TrimPrefix(url, prefix)
	}
	return url
}

// registerPlugins wraps the active scanner, passive scanner, and
// scheduler as plugins so the daemon has one uniform start/stop/health
// surface. ctx is the Daemon's run context: plugins
// whose Start spawns a background goroutine (passive listeners, the
// scheduler tick loop) close over it directly, since the Plugin interface
// itself carries no context parameter.
func (d *Daemon) registerPlugins(ctx context.Context) {
	plugins := []plugin.Plugin{newActiveScannerPlugin(d.active)}
	if d.cfg.Scheduler.Enabled {
		plugins = append(plugins, newSchedulerPlugin(ctx, d.scheduler, &d.wg))
	} else {
		log.Printf("[daemon] scheduler disabled by config")
	}
	plugins = append(plugins, newPassiveScannerPlugin(ctx, d.passive))

	for _, p := range plugins {
		if err := d.plugins.Register(p); err != nil {
			log.Printf("[daemon] plugin registration failed: %v", err)
		}
	}
}

// Run starts every background subsystem, signals readiness to systemd if
// present, and blocks until ctx is cancelled, then drains goroutines with
// a bounded timeout before returning.
func (d *Daemon) Run(ctx context.Context) error {
	d.registerPlugins(ctx)

	results := d.plugins.StartAll()
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("start plugin %s: %w", r.Key, r.Err)
		}
		log.Printf("[daemon] started %s", r.Key)
	}

	if err := sdnotify.Ready(); err != nil {
		log.Printf("[daemon] sd_notify READY failed: %v", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.watchdogLoop(ctx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatcher.run(ctx)
	}()

	<-ctx.Done()
	log.Printf("[daemon] shutdown signal received, draining")

	if err := sdnotify.Stopping(); err != nil {
		log.Printf("[daemon] sd_notify STOPPING failed: %v", err)
	}

	d.Shutdown()
	return nil
}

// watchdogLoop pings systemd's watchdog on a fixed cadence while the
// daemon is healthy.
func (d *Daemon) watchdogLoop(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopped:
			return
		case <-ticker.C:
			if err := sdnotify.Watchdog(); err != nil {
				log.Printf("[daemon] sd_notify WATCHDOG failed: %v", err)
			}
		}
	}
}

// Shutdown stops every registered plugin, signals background goroutines
// to exit, and waits up to shutdownDrainTimeout for them to finish.
func (d *Daemon) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.stopped)

		for _, r := range d.plugins.StopAll() {
			if r.Err != nil {
				log.Printf("[daemon] plugin stop error for %s: %v", r.Key, r.Err)
			}
		}

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Printf("[daemon] all subsystems stopped cleanly")
		case <-time.After(shutdownDrainTimeout):
			log.Printf("[daemon] shutdown drain timed out after %s", shutdownDrainTimeout)
		}

		if err := d.store.Close(); err != nil {
			log.Printf("[daemon] error closing store: %v", err)
		}
	})
}
