package plugin

import (
	"errors"
	"strings"
	"testing"

	"github.com/netsecio/netsecd/internal/models"
)

type mockPlugin struct {
	name     string
	category models.PluginCategory
	started  bool
	health   models.PluginStatus
}

func newMockPlugin(name string, category models.PluginCategory) *mockPlugin {
	return &mockPlugin{name: name, category: category, health: models.PluginAvailable}
}

func (p *mockPlugin) withHealth(status models.PluginStatus) *mockPlugin {
	p.health = status
	return p
}

func (p *mockPlugin) Info() models.PluginInfo {
	status := models.PluginAvailable
	if p.started {
		status = models.PluginRunning
	}
	return models.PluginInfo{
		Name:        p.name,
		Version:     "1.0.0",
		Category:    p.category,
		Status:      status,
		Description: "mock " + p.name + " plugin",
	}
}

func (p *mockPlugin) HealthCheck() models.PluginStatus { return p.health }

func (p *mockPlugin) Start() error {
	p.started = true
	return nil
}

func (p *mockPlugin) Stop() error {
	p.started = false
	return nil
}

type failingPlugin struct{}

func (failingPlugin) Info() models.PluginInfo {
	return models.PluginInfo{Name: "failing", Version: "0.0.1", Category: models.PluginNetworkScanner, Status: models.PluginError}
}
func (failingPlugin) HealthCheck() models.PluginStatus { return models.PluginError }
func (failingPlugin) Start() error                     { return errors.New("start failed") }
func (failingPlugin) Stop() error                      { return errors.New("stop failed") }

func TestRegisterAndCount(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Count())
	}
	if err := r.Register(newMockPlugin("nmap", models.PluginNetworkScanner)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newMockPlugin("nmap", models.PluginNetworkScanner)); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(newMockPlugin("nmap", models.PluginNetworkScanner))
	if err == nil {
		t.Fatal("expected a duplicate-registration error")
	}
}

func TestSameNameDifferentCategory(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newMockPlugin("scanner", models.PluginNetworkScanner)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(newMockPlugin("scanner", models.PluginVulnerabilityScanner)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("expected count 2, got %d", r.Count())
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("nmap", models.PluginNetworkScanner))
	key := Key{Category: models.PluginNetworkScanner, Name: "nmap"}
	if err := r.Unregister(key); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("expected count 0, got %d", r.Count())
	}
}

func TestUnregisterNotFound(t *testing.T) {
	r := NewRegistry()
	key := Key{Category: models.PluginNetworkScanner, Name: "nonexistent"}
	if err := r.Unregister(key); err == nil {
		t.Fatal("expected a not-found error")
	}
}

func TestGetInfo(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("nmap", models.PluginNetworkScanner))
	key := Key{Category: models.PluginNetworkScanner, Name: "nmap"}
	info, ok := r.GetInfo(key)
	if !ok {
		t.Fatal("expected to find plugin info")
	}
	if info.Name != "nmap" || info.Version != "1.0.0" || info.Category != models.PluginNetworkScanner {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestGetInfoNotFound(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.GetInfo(Key{Category: models.PluginNetworkScanner, Name: "nope"}); ok {
		t.Error("expected not found")
	}
}

func TestListAll(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("nmap", models.PluginNetworkScanner))
	r.Register(newMockPlugin("suricata", models.PluginIdsIps))
	if len(r.List()) != 2 {
		t.Errorf("expected 2 plugins, got %d", len(r.List()))
	}
}

func TestListByCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("nmap", models.PluginNetworkScanner))
	r.Register(newMockPlugin("masscan", models.PluginNetworkScanner))
	r.Register(newMockPlugin("suricata", models.PluginIdsIps))

	if scanners := r.ListByCategory(models.PluginNetworkScanner); len(scanners) != 2 {
		t.Errorf("expected 2 network scanners, got %d", len(scanners))
	}
	if ids := r.ListByCategory(models.PluginIdsIps); len(ids) != 1 {
		t.Errorf("expected 1 ids/ips plugin, got %d", len(ids))
	}
	if empty := r.ListByCategory(models.PluginMalwareScanner); len(empty) != 0 {
		t.Errorf("expected 0 malware scanners, got %d", len(empty))
	}
}

func TestHealthCheckAll(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("healthy", models.PluginNetworkScanner).withHealth(models.PluginRunning))
	r.Register(newMockPlugin("sick", models.PluginIdsIps).withHealth(models.PluginError))

	results := r.HealthCheckAll()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	var sawRunning, sawError bool
	for _, status := range results {
		if status == models.PluginRunning {
			sawRunning = true
		}
		if status == models.PluginError {
			sawError = true
		}
	}
	if !sawRunning || !sawError {
		t.Errorf("expected both running and error statuses, got %+v", results)
	}
}

func TestStartAll(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("a", models.PluginNetworkScanner))
	r.Register(newMockPlugin("b", models.PluginIdsIps))

	results := r.StartAll()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("unexpected start error for %s: %v", res.Key, res.Err)
		}
	}
	for _, info := range r.List() {
		if info.Status != models.PluginRunning {
			t.Errorf("expected %s to be running, got %s", info.Name, info.Status)
		}
	}
}

func TestStopAll(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("a", models.PluginNetworkScanner))
	r.StartAll()

	results := r.StopAll()
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("unexpected stop results: %+v", results)
	}
	for _, info := range r.List() {
		if info.Status != models.PluginAvailable {
			t.Errorf("expected %s to be available after stop, got %s", info.Name, info.Status)
		}
	}
}

func TestStartAllWithFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("good", models.PluginNetworkScanner))
	r.Register(failingPlugin{})

	results := r.StartAll()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	var successes, failures int
	for _, res := range results {
		if res.Err == nil {
			successes++
		} else {
			failures++
		}
	}
	if successes != 1 || failures != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d/%d", successes, failures)
	}
}

func TestStopAllWithFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(newMockPlugin("good", models.PluginNetworkScanner))
	r.Register(failingPlugin{})

	results := r.StopAll()
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
}

func TestKeyString(t *testing.T) {
	key := Key{Category: models.PluginNetworkScanner, Name: "nmap"}
	s := key.String()
	if !strings.Contains(s, "network_scanner") || !strings.Contains(s, "nmap") {
		t.Errorf("unexpected key string: %q", s)
	}
}
