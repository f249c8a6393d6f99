package parsers

import "testing"

func TestExtractFlows(t *testing.T) {
	data := `[
		{"src_ip":"10.0.0.1","dst_ip":"10.0.0.2","src_port":111,"dst_port":443,"protocol":"tcp","length":1000,"time":"t1"},
		{"src_ip":"10.0.0.1","dst_ip":"10.0.0.2","src_port":111,"dst_port":443,"protocol":"tcp","length":2000,"time":"t2"},
		{"src_ip":"10.0.0.3","dst_ip":"10.0.0.4","src_port":222,"dst_port":80,"protocol":"udp","length":500,"time":"t1"}
	]`

	flows := ExtractFlows(data)
	if len(flows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(flows))
	}

	first := flows[0]
	if first.BytesSent != 3000 || first.PacketsSent != 2 {
		t.Errorf("unexpected aggregation: %+v", first)
	}
	if first.FirstSeen != "t1" || first.LastSeen != "t2" {
		t.Errorf("unexpected first/last seen: %+v", first)
	}

	second := flows[1]
	if second.Protocol != "udp" || second.BytesSent != 500 {
		t.Errorf("unexpected second flow: %+v", second)
	}
}

func TestExtractFlowsMalformed(t *testing.T) {
	if flows := ExtractFlows("not json"); len(flows) != 0 {
		t.Errorf("expected no flows from malformed input, got %d", len(flows))
	}
}
