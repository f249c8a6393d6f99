package parsers

import (
	"encoding/json"
	"strings"
)

// EveAlert is the "alert" sub-object of a Suricata EVE JSON alert event.
type EveAlert struct {
	SignatureID *int64  `json:"signature_id,omitempty"`
	Signature   *string `json:"signature,omitempty"`
	Category    *string `json:"category,omitempty"`
	Severity    *int    `json:"severity,omitempty"`
}

// EveEvent is one line of a Suricata eve.json log.
type EveEvent struct {
	Timestamp string    `json:"timestamp"`
	EventType string    `json:"event_type"`
	SrcIP     *string   `json:"src_ip,omitempty"`
	DestIP    *string   `json:"dest_ip,omitempty"`
	SrcPort   *int      `json:"src_port,omitempty"`
	DestPort  *int      `json:"dest_port,omitempty"`
	Proto     *string   `json:"proto,omitempty"`
	Alert     *EveAlert `json:"alert,omitempty"`
}

// ParseEveBatch parses newline-delimited Suricata EVE JSON. Each line is
// parsed independently; a malformed or empty line is skipped rather than
// aborting the whole batch, since eve.json is written incrementally and a
// reader can observe a partially flushed final line.
//
// When alertsOnly is true, only events with event_type == "alert" are
// returned.
func ParseEveBatch(data string, alertsOnly bool) []EveEvent {
	var out []EveEvent

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var evt EveEvent
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			continue
		}

		if alertsOnly && evt.EventType != "alert" {
			continue
		}

		out = append(out, evt)
	}

	return out
}
