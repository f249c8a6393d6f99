package daemon

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/parsers"
	"github.com/netsecio/netsecd/internal/pipeline"
	"github.com/netsecio/netsecd/internal/scanner"
	"github.com/netsecio/netsecd/internal/sshexec"
	"github.com/netsecio/netsecd/internal/store"
	"github.com/netsecio/netsecd/internal/winrm"
)

var errIngestMissingPath = necerr.New(necerr.KindConfiguration, "ingest task params missing 'path'")

// Task types a scheduled_jobs row may carry in task_type. taskActiveScan
// runs an nmap scan through the active scanner; the three ingest tasks read
// a log file from disk and feed it through the matching parser and the
// alert pipeline.
const (
	taskActiveScan     = "active_scan"
	taskIngestSuricata = "ingest_suricata"
	taskIngestZeek     = "ingest_zeek"
	taskIngestPcap     = "ingest_pcap"
)

// activeScanParams is the task_params shape for an active_scan task.
type activeScanParams struct {
	Target        string          `json:"target"`
	ScanType      string          `json:"scan_type"`
	Ports         string          `json:"ports"`
	Timing        int             `json:"timing"`
	RemoteWindows *winrm.Target   `json:"remote_windows,omitempty"`
	RemoteLinux   *sshexec.Target `json:"remote_linux,omitempty"`
}

// ingestParams is the task_params shape shared by the three ingest tasks:
// the absolute path of the log file to read and process.
type ingestParams struct {
	Path string `json:"path"`
}

// taskDispatcher subscribes to scan.started events (published by the
// scheduler, or by anything else on the bus) and runs the task they name.
// It is the daemon's only consumer of eventbus.EventScanStarted — without
// it, scheduled jobs are published but never executed.
type taskDispatcher struct {
	active   *scanner.ActiveScanner
	pipeline *pipeline.Pipeline
	store    *store.Store
	bus      eventbus.Bus
}

func newTaskDispatcher(active *scanner.ActiveScanner, pl *pipeline.Pipeline, st *store.Store, bus eventbus.Bus) *taskDispatcher {
	return &taskDispatcher{active: active, pipeline: pl, store: st, bus: bus}
}

// run subscribes to the bus and dispatches one task per scan.started event
// until ctx is cancelled.
func (d *taskDispatcher) run(ctx context.Context) {
	events, unsubscribe := d.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Type != eventbus.EventScanStarted {
				continue
			}
			d.dispatch(ctx, evt)
		}
	}
}

func (d *taskDispatcher) dispatch(ctx context.Context, evt eventbus.Event) {
	taskType, _ := evt.Data["task_type"].(string)
	taskParams, _ := evt.Data["task_params"].(string)

	var err error
	switch taskType {
	case taskActiveScan:
		err = d.runActiveScan(ctx, taskParams)
	case taskIngestSuricata:
		err = d.runIngestSuricata(ctx, taskParams)
	case taskIngestZeek:
		err = d.runIngestZeek(ctx, taskParams)
	case taskIngestPcap:
		err = d.runIngestPcap(ctx, taskParams)
	default:
		log.Printf("[daemon] dispatcher: unknown task type %q for job %v", taskType, evt.Data["job_id"])
		return
	}
	if err != nil {
		log.Printf("[daemon] dispatcher: task %q failed: %v", taskType, err)
	}
}

func (d *taskDispatcher) runActiveScan(ctx context.Context, raw string) error {
	var p activeScanParams
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return err
	}

	cfg := scanner.ScanConfig{
		Target:        p.Target,
		ScanType:      models.ScanType(p.ScanType),
		Timing:        p.Timing,
		Ports:         p.Ports,
		RemoteWindows: p.RemoteWindows,
		RemoteLinux:   p.RemoteLinux,
	}
	if cfg.ScanType == "" {
		cfg.ScanType = models.ScanTypeDiscovery
	}

	_, err := d.active.RunScan(ctx, cfg)
	return err
}

func (d *taskDispatcher) runIngestSuricata(ctx context.Context, raw string) error {
	path, err := ingestPath(raw)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, evt := range parsers.ParseEveBatch(string(data), true) {
		na := pipeline.NormalizeSuricataEvent(&evt)
		if na == nil {
			continue
		}
		if _, err := d.pipeline.Process(ctx, na); err != nil {
			log.Printf("[daemon] dispatcher: suricata event rejected by pipeline: %v", err)
		}
	}
	return nil
}

func (d *taskDispatcher) runIngestZeek(ctx context.Context, raw string) error {
	path, err := ingestPath(raw)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, record := range parsers.ParseZeekLog(string(data)) {
		na := pipeline.NormalizeZeekRecord(record)
		if na == nil {
			continue
		}
		if _, err := d.pipeline.Process(ctx, na); err != nil {
			log.Printf("[daemon] dispatcher: zeek record rejected by pipeline: %v", err)
		}
	}
	return nil
}

// runIngestPcap extracts aggregated flows from a captured-packets JSON
// document, persists each as a traffic_flows row, and runs it through the
// pipeline (NormalizePcapFlow only produces an alert above the volume
// threshold, so most flows are stored but don't alert).
func (d *taskDispatcher) runIngestPcap(ctx context.Context, raw string) error {
	path, err := ingestPath(raw)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, flow := range parsers.ExtractFlows(string(data)) {
		row := &models.TrafficFlow{
			ID:          models.NewID(),
			SrcIP:       flow.SrcIP,
			DstIP:       flow.DstIP,
			SrcPort:     flow.SrcPort,
			DstPort:     flow.DstPort,
			Protocol:    flow.Protocol,
			BytesSent:   flow.BytesSent,
			PacketsSent: flow.PacketsSent,
			FirstSeen:   parseFlowTimestamp(flow.FirstSeen),
			LastSeen:    parseFlowTimestamp(flow.LastSeen),
		}
		if err := d.store.InsertTrafficFlow(ctx, row); err != nil {
			log.Printf("[daemon] dispatcher: failed to insert traffic flow %s->%s: %v", flow.SrcIP, flow.DstIP, err)
			continue
		}

		if na := pipeline.NormalizePcapFlow(&flow); na != nil {
			if _, err := d.pipeline.Process(ctx, na); err != nil {
				log.Printf("[daemon] dispatcher: pcap flow rejected by pipeline: %v", err)
			}
		}
	}
	return nil
}

// parseFlowTimestamp parses a pcap flow's opaque first/last-seen string as
// RFC3339, falling back to now: the pcap source format carries no
// timestamp-format guarantee (see internal/parsers/pcap.go).
func parseFlowTimestamp(s string) time.Time {
	if s == "" {
		return models.Now()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return models.Now()
	}
	return t
}

func ingestPath(raw string) (string, error) {
	var p ingestParams
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", err
	}
	if p.Path == "" {
		return "", errIngestMissingPath
	}
	return p.Path, nil
}
