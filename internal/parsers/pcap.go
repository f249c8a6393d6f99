package parsers

import "encoding/json"

// rawPacket is the shape of a single element in the JSON packet array (the
// format produced by tshark's -T ek / -T json export).
type rawPacket struct {
	SrcIP    string `json:"src_ip"`
	DstIP    string `json:"dst_ip"`
	SrcPort  int    `json:"src_port"`
	DstPort  int    `json:"dst_port"`
	Protocol string `json:"protocol"`
	Length   int    `json:"length"`
	Time     string `json:"time"`
}

// Flow is a 5-tuple aggregation of packets observed between a scan's start
// and end. Byte and packet counts are sent-only: a flow aggregates packets
// keyed by (src, dst, src_port, dst_port, protocol) in the direction they
// were captured, so the reverse direction of a conversation forms its own
// Flow rather than being merged in.
type Flow struct {
	SrcIP       string
	DstIP       string
	SrcPort     int
	DstPort     int
	Protocol    string
	BytesSent   int64
	PacketsSent int64
	FirstSeen   string
	LastSeen    string
}

type flowKey struct {
	srcIP, dstIP     string
	srcPort, dstPort int
	protocol         string
}

// ExtractFlows aggregates a JSON array of captured packets into 5-tuple
// flows. Input that isn't a valid JSON array (truncated capture export,
// empty input) yields an empty result rather than an error, since a
// malformed capture dump is expected sensor noise, not an operator mistake.
func ExtractFlows(packetsJSON string) []Flow {
	var packets []rawPacket
	if err := json.Unmarshal([]byte(packetsJSON), &packets); err != nil {
		return nil
	}

	order := []flowKey{}
	flows := map[flowKey]*Flow{}

	for _, p := range packets {
		key := flowKey{p.SrcIP, p.DstIP, p.SrcPort, p.DstPort, p.Protocol}

		f, ok := flows[key]
		if !ok {
			f = &Flow{
				SrcIP:     p.SrcIP,
				DstIP:     p.DstIP,
				SrcPort:   p.SrcPort,
				DstPort:   p.DstPort,
				Protocol:  p.Protocol,
				FirstSeen: p.Time,
				LastSeen:  p.Time,
			}
			flows[key] = f
			order = append(order, key)
		}

		f.BytesSent += int64(p.Length)
		f.PacketsSent++
		f.LastSeen = p.Time
	}

	out := make([]Flow, 0, len(order))
	for _, key := range order {
		out = append(out, *flows[key])
	}
	return out
}
