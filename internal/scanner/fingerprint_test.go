package scanner

import (
	"math"
	"testing"

	"github.com/netsecio/netsecd/internal/models"
)

func TestLookupOUI(t *testing.T) {
	if v := LookupOUI("00:00:0C:11:22:33"); v != "Cisco" {
		t.Errorf("got %q, want Cisco", v)
	}
	if v := LookupOUI("b8:27:eb:aa:bb:cc"); v != "Raspberry Pi Foundation" {
		t.Errorf("lookup should be case-insensitive, got %q", v)
	}
	if v := LookupOUI("FF:FF:FF:00:00:00"); v != "" {
		t.Errorf("unknown prefix should return empty, got %q", v)
	}
	if v := LookupOUI("00:00"); v != "" {
		t.Errorf("short mac should return empty, got %q", v)
	}
}

func makePort(n int) *models.Port { return models.NewPort("dev-1", n, "tcp") }

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name       string
		ports      []*models.Port
		osHint     string
		vendor     string
		wantType   models.DeviceType
		wantConf   float64
	}{
		{"server", []*models.Port{makePort(22), makePort(80), makePort(443)}, "", "", models.DeviceServer, 0.7},
		{"printer", []*models.Port{makePort(9100)}, "", "", models.DevicePrinter, 0.7},
		{"iot", []*models.Port{makePort(1883)}, "", "", models.DeviceIoT, 0.6},
		{"mobile android", nil, "Android 13", "", models.DeviceMobile, 0.8},
		{"mobile ios", nil, "iOS 17", "", models.DeviceMobile, 0.8},
		{"router", nil, "", "Cisco Systems", models.DeviceRouter, 0.7},
		{"unknown", nil, "", "", models.DeviceUnknown, 0.0},
	}

	for _, tt := range tests {
		dt, conf := ClassifyDevice(tt.ports, tt.osHint, tt.vendor)
		if dt != tt.wantType {
			t.Errorf("%s: type = %q, want %q", tt.name, dt, tt.wantType)
		}
		if math.Abs(conf-tt.wantConf) > 1e-9 {
			t.Errorf("%s: confidence = %v, want %v", tt.name, conf, tt.wantConf)
		}
	}
}

func TestClassifyDeviceIoTSuppressedByHTTP(t *testing.T) {
	ports := []*models.Port{makePort(1883), makePort(80)}
	dt, _ := ClassifyDevice(ports, "", "")
	if dt == models.DeviceIoT {
		t.Error("IoT classification should be suppressed when an HTTP port is also present")
	}
}
