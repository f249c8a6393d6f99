package daemon

import (
	"context"
	"sync"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/passive"
	"github.com/netsecio/netsecd/internal/scanner"
	"github.com/netsecio/netsecd/internal/scheduler"
)

// activeScannerPlugin adapts the active scanner to the plugin registry.
// Scans are dispatched per-request (from the scheduler or an external
// trigger) rather than run continuously, so Start/Stop are no-ops and
// health is always available once the scanner exists.
type activeScannerPlugin struct {
	scanner *scanner.ActiveScanner
}

func newActiveScannerPlugin(s *scanner.ActiveScanner) *activeScannerPlugin {
	return &activeScannerPlugin{scanner: s}
}

func (p *activeScannerPlugin) Info() models.PluginInfo {
	return models.PluginInfo{
		Name:        "nmap-active-scanner",
		Version:     "1.0.0",
		Category:    models.PluginNetworkScanner,
		Status:      models.PluginAvailable,
		Description: "Runs nmap scans and persists discovered hosts and ports",
	}
}

func (p *activeScannerPlugin) HealthCheck() models.PluginStatus { return models.PluginAvailable }
func (p *activeScannerPlugin) Start() error                     { return nil }
func (p *activeScannerPlugin) Stop() error                      { return nil }

// passiveScannerPlugin adapts the mDNS/SSDP listener to the plugin
// registry. Start launches both listeners on the daemon's run context;
// Stop signals them to close.
type passiveScannerPlugin struct {
	ctx     context.Context
	scanner *passive.Scanner
	started bool
}

func newPassiveScannerPlugin(ctx context.Context, s *passive.Scanner) *passiveScannerPlugin {
	return &passiveScannerPlugin{ctx: ctx, scanner: s}
}

func (p *passiveScannerPlugin) Info() models.PluginInfo {
	return models.PluginInfo{
		Name:        "passive-discovery",
		Version:     "1.0.0",
		Category:    models.PluginPassiveDiscovery,
		Status:      models.PluginAvailable,
		Description: "Discovers devices from mDNS and SSDP multicast traffic",
	}
}

func (p *passiveScannerPlugin) HealthCheck() models.PluginStatus {
	if p.started {
		return models.PluginRunning
	}
	return models.PluginAvailable
}

func (p *passiveScannerPlugin) Start() error {
	if err := p.scanner.StartMdns(p.ctx); err != nil {
		return err
	}
	if err := p.scanner.StartSsdp(p.ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *passiveScannerPlugin) Stop() error {
	p.scanner.Shutdown()
	p.started = false
	return nil
}

// schedulerPlugin adapts the scheduled-job tick loop to the plugin
// registry. Start spawns the loop on the supplied WaitGroup so the
// daemon's shutdown drain covers it.
type schedulerPlugin struct {
	ctx       context.Context
	scheduler *scheduler.Scheduler
	wg        *sync.WaitGroup
	started   bool
}

func newSchedulerPlugin(ctx context.Context, s *scheduler.Scheduler, wg *sync.WaitGroup) *schedulerPlugin {
	return &schedulerPlugin{ctx: ctx, scheduler: s, wg: wg}
}

func (p *schedulerPlugin) Info() models.PluginInfo {
	return models.PluginInfo{
		Name:        "job-scheduler",
		Version:     "1.0.0",
		Category:    models.PluginScheduler,
		Status:      models.PluginAvailable,
		Description: "Dispatches scheduled scans on interval and cron triggers",
	}
}

func (p *schedulerPlugin) HealthCheck() models.PluginStatus {
	if p.started {
		return models.PluginRunning
	}
	return models.PluginAvailable
}

func (p *schedulerPlugin) Start() error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.scheduler.Start(p.ctx)
	}()
	p.started = true
	return nil
}

func (p *schedulerPlugin) Stop() error {
	p.scheduler.Shutdown()
	p.started = false
	return nil
}
