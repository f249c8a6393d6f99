package scanner

import (
	"strings"
	"testing"
)

func TestParseRemotePortResultsArray(t *testing.T) {
	raw := `[{"port":22,"open":true},{"port":23,"open":false}]`
	ports, err := parseRemotePortResults(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ports) != 1 || ports[0].Port != 22 || ports[0].State != "open" {
		t.Fatalf("got %+v", ports)
	}
}

func TestParseRemotePortResultsSingle(t *testing.T) {
	raw := `{"port":443,"open":true}`
	ports, err := parseRemotePortResults(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ports) != 1 || ports[0].Port != 443 {
		t.Fatalf("got %+v", ports)
	}
}

func TestParseRemotePortResultsEmpty(t *testing.T) {
	ports, err := parseRemotePortResults("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ports != nil {
		t.Fatalf("expected nil, got %+v", ports)
	}
}

func TestParseRemotePortResultsMalformed(t *testing.T) {
	if _, err := parseRemotePortResults("not json"); err == nil {
		t.Error("expected an error for malformed output")
	}
}

func TestRemotePortScriptIncludesPorts(t *testing.T) {
	script := remotePortScript([]int{22, 443})
	for _, want := range []string{"22", "443", "Test-NetConnection"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q: %s", want, script)
		}
	}
}

func TestRemoteLinuxPortScriptIncludesPorts(t *testing.T) {
	script := remoteLinuxPortScript([]int{8080})
	for _, want := range []string{"8080", "/dev/tcp"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q: %s", want, script)
		}
	}
}
