package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/parsers"
	"github.com/netsecio/netsecd/internal/pipeline"
	"github.com/netsecio/netsecd/internal/sshexec"
	"github.com/netsecio/netsecd/internal/store"
	"github.com/netsecio/netsecd/internal/winrm"
)

// defaultRemoteProbePorts is the port list a remote fallback check probes
// when a scan config gives no explicit port spec to parse.
var defaultRemoteProbePorts = []int{22, 80, 443, 445, 3389, 5985, 5986}

// ScanConfig describes a single active scan request.
type ScanConfig struct {
	// Target is a CIDR or bare IP, e.g. "192.168.1.0/24".
	Target string
	ScanType models.ScanType
	// Timing is the nmap timing template, 0-5.
	Timing int
	// Ports is an optional port specification, e.g. "22,80,443" or "1-1024".
	Ports string

	// RemoteWindows, if set, is tried when nmap cannot reach Target
	// directly (e.g. a segment behind a domain controller): a WinRM-based
	// TCP reachability probe of Ports against this credentialed target.
	RemoteWindows *winrm.Target
	// RemoteLinux is RemoteWindows' SSH-based equivalent, for hosts behind
	// a Linux bastion.
	RemoteLinux *sshexec.Target
}

// DiscoveredHost is an up host extracted from a parsed nmap result.
type DiscoveredHost struct {
	IP       string
	MAC      string
	Hostname string
	Vendor   string
	OSInfo   string
	Ports    []DiscoveredPort
}

// DiscoveredPort is a single port on a DiscoveredHost.
type DiscoveredPort struct {
	Port           int
	Protocol       string
	State          string
	ServiceName    string
	ServiceVersion string
}

// BuildNmapArgs builds the nmap command-line arguments for a scan config.
//
//   - Discovery: -sn -T{timing} {target}
//   - Full:      -sS -sV -O -T{timing} -oX - {target}
//   - otherwise (Port, Vulnerability, Custom): -sS -T{timing} [-p ports] -oX - {target}
func BuildNmapArgs(cfg ScanConfig) []string {
	timing := cfg.Timing
	if timing > 5 {
		timing = 5
	}

	switch cfg.ScanType {
	case models.ScanTypeDiscovery:
		return []string{"-sn", fmt.Sprintf("-T%d", timing), cfg.Target}
	case models.ScanTypeFull:
		return []string{"-sS", "-sV", "-O", fmt.Sprintf("-T%d", timing), "-oX", "-", cfg.Target}
	default:
		args := []string{"-sS", fmt.Sprintf("-T%d", timing)}
		if cfg.Ports != "" {
			args = append(args, "-p", cfg.Ports)
		}
		args = append(args, "-oX", "-", cfg.Target)
		return args
	}
}

// ProcessNmapResults converts a parsed nmap document into DiscoveredHosts,
// keeping only hosts reported up.
func ProcessNmapResults(result *parsers.NmapScanResult) []DiscoveredHost {
	var out []DiscoveredHost

	for _, host := range result.Hosts {
		if host.Status != "up" {
			continue
		}

		ip := host.Addresses["ipv4"]
		if ip == "" {
			ip = host.Addresses["ipv6"]
		}
		if ip == "" {
			continue
		}

		var hostname string
		if len(host.Hostnames) > 0 {
			hostname = host.Hostnames[0]["name"]
		}

		ports := make([]DiscoveredPort, 0, len(host.Ports))
		for _, p := range host.Ports {
			ports = append(ports, DiscoveredPort{
				Port:           p.Port,
				Protocol:       p.Protocol,
				State:          p.State,
				ServiceName:    p.Service["name"],
				ServiceVersion: p.Service["version"],
			})
		}

		out = append(out, DiscoveredHost{
			IP:       ip,
			MAC:      host.Addresses["mac"],
			Hostname: hostname,
			Vendor:   host.Addresses["vendor"],
			OSInfo:   host.OS["name"],
			Ports:    ports,
		})
	}

	return out
}

// ActiveScanner runs nmap scans, persists discovered hosts/ports, classifies
// devices, and publishes discovery events.
type ActiveScanner struct {
	store    *store.Store
	bus      *eventbus.Bus
	pipeline *pipeline.Pipeline

	scanTimeout time.Duration
	winrmExec   *winrm.Executor
	sshExec     *sshexec.Executor
}

// NewActiveScanner builds an ActiveScanner. scanTimeout bounds every nmap
// subprocess invocation; it becomes the context deadline ExecuteNmap runs
// under. pl receives one normalized alert per open port/OS match RunScan
// discovers.
func NewActiveScanner(st *store.Store, bus *eventbus.Bus, pl *pipeline.Pipeline, scanTimeout time.Duration) *ActiveScanner {
	return &ActiveScanner{
		store:       st,
		bus:         bus,
		pipeline:    pl,
		scanTimeout: scanTimeout,
		winrmExec:   winrm.NewExecutor(),
		sshExec:     sshexec.NewExecutor(),
	}
}

// CreateScanRecord inserts a scan row in the running state.
func (s *ActiveScanner) CreateScanRecord(ctx context.Context, cfg ScanConfig) (*models.Scan, error) {
	params, _ := json.Marshal(map[string]any{
		"timing":    cfg.Timing,
		"ports":     cfg.Ports,
		"scan_type": string(cfg.ScanType),
	})

	scan := models.NewScan(cfg.ScanType, "nmap", cfg.Target, string(params))
	if err := s.store.InsertScan(ctx, scan); err != nil {
		return nil, err
	}
	return scan, nil
}

// PersistHosts upserts each discovered host's device and ports, classifies
// the device, and publishes a device.discovered or device.updated event.
func (s *ActiveScanner) PersistHosts(ctx context.Context, hosts []DiscoveredHost) ([]*models.Device, error) {
	var devices []*models.Device

	for _, host := range hosts {
		existing, err := s.store.GetDeviceByIP(ctx, host.IP)
		if err != nil {
			return nil, err
		}

		isNew := existing == nil
		now := models.Now()

		var device *models.Device
		if existing != nil {
			device = existing
			device.LastSeen = now
			device.Status = models.DeviceOnline
			if host.MAC != "" {
				device.MAC = &host.MAC
			}
			if device.Hostname == nil && host.Hostname != "" {
				device.Hostname = &host.Hostname
			}
			if host.Vendor != "" {
				device.Vendor = &host.Vendor
			}
			if host.OSInfo != "" {
				device.OSFamily = &host.OSInfo
			}
		} else {
			device = models.NewDevice(host.IP)
			if host.MAC != "" {
				device.MAC = &host.MAC
			}
			if host.Hostname != "" {
				device.Hostname = &host.Hostname
			}
			if host.Vendor != "" {
				device.Vendor = &host.Vendor
			}
			if host.OSInfo != "" {
				device.OSFamily = &host.OSInfo
			}
			device.Status = models.DeviceOnline
			device.LastSeen = now
			device.FirstSeen = now
		}

		if isNew {
			if err := s.store.InsertDevice(ctx, device); err != nil {
				return nil, err
			}
		} else {
			if err := s.store.UpdateDevice(ctx, device); err != nil {
				return nil, err
			}
		}

		for _, dp := range host.Ports {
			port := models.NewPort(device.ID, dp.Port, dp.Protocol)
			port.State = dp.State
			if dp.ServiceName != "" {
				port.ServiceName = &dp.ServiceName
			}
			if dp.ServiceVersion != "" {
				port.ServiceVersion = &dp.ServiceVersion
			}
			if err := s.store.UpsertPort(ctx, port); err != nil {
				return nil, err
			}
		}

		dbPorts, err := s.store.ListPortsByDevice(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		osHint := ""
		if device.OSFamily != nil {
			osHint = *device.OSFamily
		}
		vendor := ""
		if device.Vendor != nil {
			vendor = *device.Vendor
		}
		deviceType, confidence := ClassifyDevice(dbPorts, osHint, vendor)
		device.DeviceType = deviceType
		device.ClassificationConfidence = confidence
		if err := s.store.UpdateDevice(ctx, device); err != nil {
			return nil, err
		}

		eventType := eventbus.EventDeviceDiscovered
		eventName := "device_discovered"
		if !isNew {
			eventType = eventbus.EventDeviceUpdated
			eventName = "device_updated"
		}
		s.bus.Publish(eventbus.Event{
			Type:      eventType,
			ID:        models.NewID(),
			Timestamp: models.Now(),
			Source:    "scanner.active",
			Data: map[string]any{
				"device_id":   device.ID,
				"ip":          device.IP,
				"device_type": string(device.DeviceType),
			},
		})

		eventData, _ := json.Marshal(map[string]any{
			"ip":          device.IP,
			"device_type": string(device.DeviceType),
		})
		deviceEvent := &models.DeviceEvent{
			ID:        models.NewID(),
			DeviceID:  device.ID,
			EventType: eventName,
			Data:      string(eventData),
			CreatedAt: models.Now(),
		}
		if err := s.store.InsertDeviceEvent(ctx, deviceEvent); err != nil {
			return nil, err
		}

		devices = append(devices, device)
	}

	return devices, nil
}

// CompleteScan marks a scan completed and stores a results summary.
func (s *ActiveScanner) CompleteScan(ctx context.Context, scanID string, hosts []DiscoveredHost) error {
	totalPorts := 0
	for _, h := range hosts {
		totalPorts += len(h.Ports)
	}
	results, _ := json.Marshal(map[string]any{
		"hosts_found": len(hosts),
		"total_ports": totalPorts,
	})
	return s.store.CompleteScan(ctx, scanID, string(results), models.Now())
}

// RunScan creates a scan record, executes nmap, persists the results, and
// marks the scan completed or failed. If nmap fails to reach the target and
// cfg carries a remote credential target (RemoteWindows/RemoteLinux), it
// falls back to a WinRM/SSH-based port reachability probe of that target
// instead of failing the scan outright. Every open port and OS match found
// is normalized and run through the alert pipeline before RunScan returns.
func (s *ActiveScanner) RunScan(ctx context.Context, cfg ScanConfig) ([]*models.Device, error) {
	scan, err := s.CreateScanRecord(ctx, cfg)
	if err != nil {
		return nil, err
	}

	nmapCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	result, nmapErr := ExecuteNmap(nmapCtx, cfg)

	var hosts []DiscoveredHost
	if nmapErr != nil {
		if cfg.RemoteWindows == nil && cfg.RemoteLinux == nil {
			_ = s.store.FailScan(ctx, scan.ID, models.Now())
			return nil, nmapErr
		}
		hosts, err = s.runRemoteFallback(ctx, cfg)
		if err != nil {
			_ = s.store.FailScan(ctx, scan.ID, models.Now())
			return nil, err
		}
	} else {
		hosts = ProcessNmapResults(result)
	}
	devices, err := s.PersistHosts(ctx, hosts)
	if err != nil {
		_ = s.store.FailScan(ctx, scan.ID, models.Now())
		return nil, err
	}

	if err := s.CompleteScan(ctx, scan.ID, hosts); err != nil {
		return nil, necerr.Wrap(necerr.KindStore, "complete scan", err)
	}

	s.raiseAlerts(ctx, hosts)

	if cfg.ScanType == models.ScanTypeVulnerability {
		if err := s.recordVulnerabilities(ctx, devices, hosts); err != nil {
			log.Printf("[scanner.active] failed to record vulnerabilities for scan %s: %v", scan.ID, err)
		}
	}

	return devices, nil
}

// raiseAlerts normalizes every open port and OS match across hosts and runs
// each through the pipeline. A nil pipeline (e.g. in tests exercising
// RunScan directly) is a no-op.
func (s *ActiveScanner) raiseAlerts(ctx context.Context, hosts []DiscoveredHost) {
	if s.pipeline == nil {
		return
	}
	for _, host := range hosts {
		nmapHost := hostToNmapHost(host)
		for _, na := range pipeline.NormalizeNmapHost(nmapHost) {
			if _, err := s.pipeline.Process(ctx, na); err != nil {
				log.Printf("[scanner.active] pipeline rejected alert for %s: %v", host.IP, err)
			}
		}
	}
}

// hostToNmapHost adapts a DiscoveredHost (the scanner's own representation,
// populated from either nmap XML or a remote fallback probe) into the
// parsers.NmapHost shape pipeline.NormalizeNmapHost expects, so both paths
// share one normalization/alerting route.
func hostToNmapHost(host DiscoveredHost) *parsers.NmapHost {
	ports := make([]parsers.NmapPort, 0, len(host.Ports))
	for _, p := range host.Ports {
		ports = append(ports, parsers.NmapPort{
			Port:     p.Port,
			Protocol: p.Protocol,
			State:    p.State,
			Service:  map[string]string{"name": p.ServiceName, "version": p.ServiceVersion},
		})
	}

	addresses := map[string]string{"ipv4": host.IP}
	if host.MAC != "" {
		addresses["mac"] = host.MAC
	}
	if host.Vendor != "" {
		addresses["vendor"] = host.Vendor
	}

	var hostnames []map[string]string
	if host.Hostname != "" {
		hostnames = append(hostnames, map[string]string{"name": host.Hostname})
	}

	var os map[string]string
	if host.OSInfo != "" {
		os = map[string]string{"name": host.OSInfo}
	}

	return &parsers.NmapHost{
		Status:    "up",
		Addresses: addresses,
		Hostnames: hostnames,
		Ports:     ports,
		OS:        os,
	}
}

// recordVulnerabilities synthesizes a Vulnerability row for each open port
// carrying a detected service/version on a ScanTypeVulnerability run. Nmap's
// own parser never captures NSE vulnerability-script output (see
// internal/parsers/nmap.go), so this works from the service fingerprint
// already on hand rather than a richer scan result.
func (s *ActiveScanner) recordVulnerabilities(ctx context.Context, devices []*models.Device, hosts []DiscoveredHost) error {
	deviceByIP := make(map[string]*models.Device, len(devices))
	for _, d := range devices {
		deviceByIP[d.IP] = d
	}

	now := models.Now()
	for _, host := range hosts {
		device, ok := deviceByIP[host.IP]
		if !ok {
			continue
		}
		for _, port := range host.Ports {
			if port.State != "open" || port.ServiceVersion == "" {
				continue
			}
			title := fmt.Sprintf("Unverified service version exposed: %s on port %d/%s", port.ServiceVersion, port.Port, port.Protocol)
			description := fmt.Sprintf("%s %s is listening on %s:%d; no CVE match performed, flagged for manual review",
				port.ServiceName, port.ServiceVersion, host.IP, port.Port)
			v := &models.Vulnerability{
				ID:          models.NewID(),
				DeviceID:    device.ID,
				Title:       title,
				Severity:    models.SeverityLow,
				Description: &description,
				FirstSeen:   now,
				LastSeen:    now,
			}
			if err := s.store.InsertVulnerability(ctx, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// runRemoteFallback probes cfg's remote credential target (whichever of
// RemoteWindows/RemoteLinux is set) for the ports cfg.Ports names, or
// defaultRemoteProbePorts if Ports is empty/unparseable, and returns a
// single-host result carrying whatever ports answered open.
func (s *ActiveScanner) runRemoteFallback(ctx context.Context, cfg ScanConfig) ([]DiscoveredHost, error) {
	ports := parsePortList(cfg.Ports)

	var (
		discovered []DiscoveredPort
		err        error
		target     string
	)
	switch {
	case cfg.RemoteWindows != nil:
		discovered, err = ExecuteRemoteWindowsPortCheck(s.winrmExec, cfg.RemoteWindows, ports)
		target = cfg.RemoteWindows.Hostname
	case cfg.RemoteLinux != nil:
		discovered, err = ExecuteRemoteLinuxPortCheck(ctx, s.sshExec, cfg.RemoteLinux, ports)
		target = cfg.RemoteLinux.Hostname
	default:
		return nil, necerr.New(necerr.KindConfiguration, "no remote target configured for fallback")
	}
	if err != nil {
		return nil, err
	}

	return []DiscoveredHost{{
		IP:    target,
		Ports: discovered,
	}}, nil
}

// parsePortList converts a scan config's port spec ("22,80,443" or a single
// port) into a slice of ints, falling back to defaultRemoteProbePorts when
// spec is empty or nothing in it parses.
func parsePortList(spec string) []int {
	if spec == "" {
		return defaultRemoteProbePorts
	}

	var ports []int
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return defaultRemoteProbePorts
	}
	return ports
}
