package scanner

import (
	"reflect"
	"testing"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/parsers"
)

func TestBuildNmapArgsDiscovery(t *testing.T) {
	args := BuildNmapArgs(ScanConfig{Target: "192.168.1.0/24", ScanType: models.ScanTypeDiscovery, Timing: 4})
	want := []string{"-sn", "-T4", "192.168.1.0/24"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildNmapArgsPortScan(t *testing.T) {
	args := BuildNmapArgs(ScanConfig{Target: "10.0.0.1", ScanType: models.ScanTypePort, Timing: 3, Ports: "22,80,443"})
	want := []string{"-sS", "-T3", "-p", "22,80,443", "-oX", "-", "10.0.0.1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildNmapArgsFullScan(t *testing.T) {
	args := BuildNmapArgs(ScanConfig{Target: "10.0.0.0/24", ScanType: models.ScanTypeFull, Timing: 4})
	want := []string{"-sS", "-sV", "-O", "-T4", "-oX", "-", "10.0.0.0/24"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildNmapArgsTimingClamp(t *testing.T) {
	args := BuildNmapArgs(ScanConfig{Target: "1.2.3.4", ScanType: models.ScanTypeDiscovery, Timing: 9})
	if args[1] != "-T5" {
		t.Errorf("timing should clamp to 5, got %q", args[1])
	}
}

func TestProcessNmapResultsSkipsDown(t *testing.T) {
	result := &parsers.NmapScanResult{
		Hosts: []parsers.NmapHost{
			{Status: "up", Addresses: map[string]string{"ipv4": "10.0.0.1"}},
			{Status: "down", Addresses: map[string]string{"ipv4": "10.0.0.2"}},
			{Status: "up", Addresses: map[string]string{"ipv4": "10.0.0.3"}},
		},
	}
	hosts := ProcessNmapResults(result)
	if len(hosts) != 2 {
		t.Fatalf("expected 2 up hosts, got %d", len(hosts))
	}
	if hosts[0].IP != "10.0.0.1" || hosts[1].IP != "10.0.0.3" {
		t.Errorf("unexpected hosts: %+v", hosts)
	}
}

func TestProcessNmapResultsFields(t *testing.T) {
	result := &parsers.NmapScanResult{
		Hosts: []parsers.NmapHost{{
			Status: "up",
			Addresses: map[string]string{
				"ipv4":   "192.168.1.1",
				"mac":    "AA:BB:CC:DD:EE:FF",
				"vendor": "TestVendor",
			},
			Hostnames: []map[string]string{{"name": "host1.local"}},
			Ports: []parsers.NmapPort{
				{Port: 80, Protocol: "tcp", State: "open", Service: map[string]string{"name": "http"}},
			},
		}},
	}
	hosts := ProcessNmapResults(result)
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(hosts))
	}
	h := hosts[0]
	if h.MAC != "AA:BB:CC:DD:EE:FF" || h.Vendor != "TestVendor" || h.Hostname != "host1.local" {
		t.Errorf("unexpected host fields: %+v", h)
	}
	if len(h.Ports) != 1 || h.Ports[0].Port != 80 {
		t.Errorf("unexpected ports: %+v", h.Ports)
	}
}
