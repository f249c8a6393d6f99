package parsers

import "testing"

func TestParseEveBatch(t *testing.T) {
	data := `{"timestamp":"2024-01-15T10:00:00","event_type":"alert","src_ip":"10.0.0.1","dest_ip":"10.0.0.2","alert":{"signature":"ET SCAN Nmap","signature_id":2000001,"severity":2,"category":"Attempted Information Leak"}}
{"timestamp":"2024-01-15T10:00:01","event_type":"flow","src_ip":"10.0.0.1"}
not json, skip me
{"timestamp":"2024-01-15T10:00:02","event_type":"alert","src_ip":"10.0.0.3","alert":{"signature_id":5,"severity":1}}
`

	all := ParseEveBatch(data, false)
	if len(all) != 3 {
		t.Fatalf("expected 3 parsed events, got %d", len(all))
	}

	alertsOnly := ParseEveBatch(data, true)
	if len(alertsOnly) != 2 {
		t.Fatalf("expected 2 alert events, got %d", len(alertsOnly))
	}
	for _, evt := range alertsOnly {
		if evt.EventType != "alert" {
			t.Errorf("unexpected event type in alerts-only filter: %q", evt.EventType)
		}
	}
}

func TestParseEveBatchEmpty(t *testing.T) {
	if events := ParseEveBatch("", true); len(events) != 0 {
		t.Errorf("expected no events from empty input, got %d", len(events))
	}
}
