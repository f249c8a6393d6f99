package passive

import (
	"strings"
	"testing"
)

func TestBuildSsdpMsearch(t *testing.T) {
	msearch := BuildSsdpMsearch()
	for _, want := range []string{"M-SEARCH", "MAN:", "ST:", "MX:"} {
		if !strings.Contains(msearch, want) {
			t.Errorf("msearch missing %q:\n%s", want, msearch)
		}
	}
}

func TestBuildSsdpMsearchHost(t *testing.T) {
	msearch := BuildSsdpMsearch()
	if !strings.Contains(msearch, "HOST: 239.255.255.250:1900") {
		t.Errorf("msearch missing HOST header:\n%s", msearch)
	}
}

func TestParseMdnsResponseEmpty(t *testing.T) {
	if ParseMdnsResponse(nil, "192.168.1.1") != nil {
		t.Error("expected nil for empty input")
	}
	if ParseMdnsResponse(make([]byte, 5), "192.168.1.1") != nil {
		t.Error("expected nil for input shorter than the DNS header")
	}
}

func TestParseMdnsResponseWalksLabels(t *testing.T) {
	// 12-byte DNS header (zeroed), then a question name "_http._tcp.local".
	data := make([]byte, 12)
	for _, label := range []string{"_http", "_tcp", "local"} {
		data = append(data, byte(len(label)))
		data = append(data, []byte(label)...)
	}
	data = append(data, 0) // root label terminator

	record := ParseMdnsResponse(data, "192.168.1.9")
	if record == nil {
		t.Fatal("expected a parsed record")
	}
	if record.ServiceType != "_http._tcp.local" {
		t.Errorf("service_type = %q", record.ServiceType)
	}
	if record.Hostname != "http.192.168.1.9" {
		t.Errorf("hostname = %q", record.Hostname)
	}
}
