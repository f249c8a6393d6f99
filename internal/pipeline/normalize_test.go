package pipeline

import (
	"testing"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/parsers"
)

func TestNormalizeNmapHostOpenPorts(t *testing.T) {
	host := &parsers.NmapHost{
		Addresses: map[string]string{"ipv4": "10.0.0.1"},
		Ports: []parsers.NmapPort{
			{Port: 22, Protocol: "tcp", State: "open", Service: map[string]string{"name": "ssh"}},
			{Port: 80, Protocol: "tcp", State: "open", Service: map[string]string{"name": "http"}},
			{Port: 81, Protocol: "tcp", State: "filtered", Service: map[string]string{}},
		},
	}

	alerts := NormalizeNmapHost(host)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts (filtered port excluded), got %d", len(alerts))
	}
	if alerts[0].Severity != models.SeverityInfo || alerts[0].Category != models.CategoryVulnerability {
		t.Errorf("unexpected first alert: %+v", alerts[0])
	}
}

func TestNormalizeNmapHostFingerprintDeterminism(t *testing.T) {
	host := &parsers.NmapHost{
		Addresses: map[string]string{"ipv4": "10.0.0.1"},
		Ports:     []parsers.NmapPort{{Port: 443, Protocol: "tcp", State: "open", Service: map[string]string{}}},
	}
	a1 := NormalizeNmapHost(host)
	a2 := NormalizeNmapHost(host)
	if a1[0].Fingerprint != a2[0].Fingerprint {
		t.Errorf("fingerprints should be deterministic: %q vs %q", a1[0].Fingerprint, a2[0].Fingerprint)
	}
	want := "nmap:open_port:10.0.0.1:443:tcp"
	if a1[0].Fingerprint != want {
		t.Errorf("fingerprint = %q, want %q", a1[0].Fingerprint, want)
	}
}

func TestNormalizeNmapHostOSDetection(t *testing.T) {
	host := &parsers.NmapHost{
		Addresses: map[string]string{"ipv4": "10.0.0.1"},
		OS:        map[string]string{"name": "Linux 5.4"},
	}
	alerts := NormalizeNmapHost(host)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 OS-detection alert, got %d", len(alerts))
	}
	if alerts[0].Category != models.CategoryOther {
		t.Errorf("OS alert category = %q, want other", alerts[0].Category)
	}
}

func TestNormalizeSuricataSeverityMapping(t *testing.T) {
	mk := func(sev int) *parsers.EveEvent {
		ip := "1.2.3.4"
		return &parsers.EveEvent{
			EventType: "alert",
			SrcIP:     &ip,
			Alert:     &parsers.EveAlert{Severity: &sev},
		}
	}

	cases := []struct {
		sev  int
		want models.Severity
	}{
		{1, models.SeverityCritical},
		{2, models.SeverityHigh},
		{3, models.SeverityMedium},
		{4, models.SeverityLow},
	}
	for _, c := range cases {
		alert := NormalizeSuricataEvent(mk(c.sev))
		if alert.Severity != c.want {
			t.Errorf("severity %d => %q, want %q", c.sev, alert.Severity, c.want)
		}
	}
}

func TestNormalizeSuricataWithoutAlert(t *testing.T) {
	evt := &parsers.EveEvent{EventType: "flow"}
	if a := NormalizeSuricataEvent(evt); a != nil {
		t.Errorf("expected nil for non-alert event, got %+v", a)
	}
}

func TestCategorizeSuricata(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"A Network Trojan was Detected", models.CategoryMalware},
		{"Potentially Bad Traffic exploit attempt", models.CategoryIntrusion},
		{"Policy Violation", models.CategoryPolicyViolation},
		{"Attempted Information Leak", models.CategoryNetworkThreat},
		{"Anomalous Behavior", models.CategoryAnomaly},
		{"Known Vulnerability", models.CategoryVulnerability},
		{"Miscellaneous", models.CategoryOther},
	}
	for _, tt := range tests {
		if got := CategorizeSuricata(tt.category); got != tt.want {
			t.Errorf("CategorizeSuricata(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestNormalizeZeekAnomalousStates(t *testing.T) {
	for _, state := range []string{"S0", "REJ", "RSTO", "RSTR"} {
		record := parsers.ZeekRecord{
			"conn_state": state,
			"id.orig_h":  "10.0.0.1",
			"id.resp_h":  "10.0.0.2",
			"id.resp_p":  "80",
			"proto":      "tcp",
		}
		alert := NormalizeZeekRecord(record)
		if alert == nil {
			t.Fatalf("state %s should produce an alert", state)
		}
	}
}

func TestNormalizeZeekNormalState(t *testing.T) {
	record := parsers.ZeekRecord{"conn_state": "SF", "id.orig_h": "10.0.0.1"}
	if a := NormalizeZeekRecord(record); a != nil {
		t.Errorf("expected nil for normal conn_state, got %+v", a)
	}
}

func TestNormalizePcapFlow(t *testing.T) {
	high := &parsers.Flow{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", DstPort: 443, Protocol: "tcp", BytesSent: 2_000_000, PacketsSent: 500}
	if a := NormalizePcapFlow(high); a == nil || a.Severity != models.SeverityMedium {
		t.Errorf("expected a medium-severity alert for high-volume flow, got %+v", a)
	}

	low := &parsers.Flow{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", DstPort: 80, Protocol: "tcp", BytesSent: 500, PacketsSent: 10}
	if a := NormalizePcapFlow(low); a != nil {
		t.Errorf("expected nil for normal-volume flow, got %+v", a)
	}
}
