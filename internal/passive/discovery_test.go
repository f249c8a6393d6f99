package passive

import (
	"context"
	"testing"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestProcessMdnsCreatesDevice(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	bus := eventbus.New()
	busPtr := &bus

	record := &MdnsRecord{
		Hostname:    "mydevice.local",
		ServiceType: "_http._tcp.local",
		IP:          "192.168.1.50",
		Port:        80,
	}

	device, err := ProcessMdnsDiscovery(ctx, st, busPtr, record, "192.168.1.50")
	if err != nil {
		t.Fatalf("process mdns discovery: %v", err)
	}
	if device.IP != "192.168.1.50" {
		t.Errorf("ip = %q", device.IP)
	}
	if device.Hostname == nil || *device.Hostname != "mydevice.local" {
		t.Errorf("hostname = %v", device.Hostname)
	}

	obs, err := st.ListObservationsByDevice(ctx, device.ID, 10)
	if err != nil {
		t.Fatalf("list observations: %v", err)
	}
	if len(obs) != 1 || obs[0].Protocol != "mdns" {
		t.Errorf("unexpected observations: %+v", obs)
	}
}

func TestProcessMdnsUpdatesExistingKeepsHostname(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	bus := eventbus.New()
	busPtr := &bus

	first, err := ProcessMdnsDiscovery(ctx, st, busPtr, &MdnsRecord{
		Hostname: "old-name", IP: "192.168.1.60",
	}, "192.168.1.60")
	if err != nil {
		t.Fatalf("seed device: %v", err)
	}

	second, err := ProcessMdnsDiscovery(ctx, st, busPtr, &MdnsRecord{
		Hostname: "new-name", IP: "192.168.1.60",
	}, "192.168.1.60")
	if err != nil {
		t.Fatalf("update device: %v", err)
	}

	if second.ID != first.ID {
		t.Error("expected the same device row to be reused")
	}
	if second.Hostname == nil || *second.Hostname != "old-name" {
		t.Errorf("hostname should not be overwritten, got %v", second.Hostname)
	}
}

func TestProcessSsdpCreatesDeviceAndObservation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	bus := eventbus.New()
	busPtr := &bus

	ssdp := &SsdpDevice{
		Location: "http://192.168.1.70:80/desc.xml",
		Server:   "Linux UPnP/1.0",
		USN:      "uuid:device-abc",
		ST:       "upnp:rootdevice",
	}

	device, err := ProcessSsdpDiscovery(ctx, st, busPtr, ssdp, "192.168.1.70")
	if err != nil {
		t.Fatalf("process ssdp discovery: %v", err)
	}
	if device.IP != "192.168.1.70" {
		t.Errorf("ip = %q", device.IP)
	}
	if device.Hostname == nil || *device.Hostname != "Linux UPnP/1.0" {
		t.Errorf("hostname = %v", device.Hostname)
	}

	obs, err := st.ListObservationsByDevice(ctx, device.ID, 10)
	if err != nil {
		t.Fatalf("list observations: %v", err)
	}
	if len(obs) != 1 || obs[0].Protocol != "ssdp" {
		t.Errorf("unexpected observations: %+v", obs)
	}
}
