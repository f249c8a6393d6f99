package parsers

import "testing"

const sampleNmapXML = `<?xml version="1.0"?>
<nmaprun scanner="nmap" args="nmap -A 10.0.0.1">
  <host>
    <status state="up"/>
    <address addr="10.0.0.1" addrtype="ipv4"/>
    <hostnames>
      <hostname name="host1.local" type="PTR"/>
    </hostnames>
    <ports>
      <port protocol="tcp" portid="22">
        <state state="open"/>
        <service name="ssh" product="OpenSSH"/>
      </port>
      <port protocol="tcp" portid="80">
        <state state="closed"/>
        <service name="http"/>
      </port>
    </ports>
    <os>
      <osmatch name="Linux 5.4" accuracy="95"/>
    </os>
  </host>
</nmaprun>`

func TestParseNmapXML(t *testing.T) {
	result, err := ParseNmapXML(sampleNmapXML)
	if err != nil {
		t.Fatalf("ParseNmapXML returned error: %v", err)
	}
	if len(result.Hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(result.Hosts))
	}

	host := result.Hosts[0]
	if host.Status != "up" {
		t.Errorf("status = %q, want up", host.Status)
	}
	if host.Addresses["ipv4"] != "10.0.0.1" {
		t.Errorf("ipv4 address = %q, want 10.0.0.1", host.Addresses["ipv4"])
	}
	if len(host.Hostnames) != 1 || host.Hostnames[0]["name"] != "host1.local" {
		t.Errorf("unexpected hostnames: %+v", host.Hostnames)
	}
	if len(host.Ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(host.Ports))
	}
	if host.Ports[0].Port != 22 || host.Ports[0].State != "open" || host.Ports[0].Service["name"] != "ssh" {
		t.Errorf("unexpected first port: %+v", host.Ports[0])
	}
	if host.Ports[1].State != "closed" {
		t.Errorf("second port state = %q, want closed", host.Ports[1].State)
	}
	if host.OS["name"] != "Linux 5.4" {
		t.Errorf("os name = %q, want Linux 5.4", host.OS["name"])
	}
}

func TestParseNmapXMLMalformed(t *testing.T) {
	_, err := ParseNmapXML(`<nmaprun><host></nmaprun>`)
	if err == nil {
		t.Fatal("expected an error for mismatched tags")
	}
}

func TestParseNmapXMLNonXML(t *testing.T) {
	result, err := ParseNmapXML("not xml at all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hosts) != 0 {
		t.Errorf("expected no hosts, got %d", len(result.Hosts))
	}
}
