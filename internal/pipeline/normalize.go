// Package pipeline turns parser output into persisted, deduplicated,
// scored and correlated alerts, then fans each one out to its dispatch
// targets. The five stages (normalize, deduplicate, score, correlate,
// dispatch) are separate files so each can be tested in isolation; Process
// in pipeline.go wires them into the single entry point callers use.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/parsers"
)

const (
	pcapBytesThreshold   int64 = 1_000_000
	pcapPacketsThreshold int64 = 1_000
)

var zeekAnomalousStates = map[string]bool{
	"S0": true, "REJ": true, "RSTO": true, "RSTR": true,
}

// NormalizeNmapHost converts a single nmap host block into zero or more
// normalized alerts: one per open port, plus one for an OS match if present.
func NormalizeNmapHost(host *parsers.NmapHost) []*models.NormalizedAlert {
	ip := host.Addresses["ipv4"]
	if ip == "" {
		ip = host.Addresses["ipv6"]
	}

	var out []*models.NormalizedAlert

	for _, port := range host.Ports {
		if port.State != "open" {
			continue
		}
		serviceName := port.Service["name"]
		if serviceName == "" {
			serviceName = "unknown"
		}

		fingerprint := fmt.Sprintf("nmap:open_port:%s:%d:%s", ip, port.Port, port.Protocol)
		title := fmt.Sprintf("Open port %d/%s (%s)", port.Port, port.Protocol, serviceName)
		description := fmt.Sprintf("Nmap discovered open port %d/%s running %s on %s",
			port.Port, port.Protocol, serviceName, ip)

		out = append(out, &models.NormalizedAlert{
			SourceTool:  "nmap",
			Severity:    models.SeverityInfo,
			Category:    models.CategoryVulnerability,
			Title:       title,
			Description: description,
			DeviceIP:    strPtr(ip),
			Fingerprint: fingerprint,
			RawData: map[string]any{
				"port":     port.Port,
				"protocol": port.Protocol,
				"state":    port.State,
				"service":  port.Service,
			},
			Timestamp: models.Now(),
		})
	}

	if osName := host.OS["name"]; osName != "" {
		fingerprint := fmt.Sprintf("nmap:os_detect:%s:%s", ip, osName)
		out = append(out, &models.NormalizedAlert{
			SourceTool:  "nmap",
			Severity:    models.SeverityInfo,
			Category:    models.CategoryOther,
			Title:       fmt.Sprintf("OS detected: %s", osName),
			Description: fmt.Sprintf("Nmap OS detection identified %s on %s", osName, ip),
			DeviceIP:    strPtr(ip),
			Fingerprint: fingerprint,
			RawData:     map[string]any{"os": host.OS},
			Timestamp:   models.Now(),
		})
	}

	return out
}

// NormalizeSuricataEvent converts one EVE JSON event into zero or one
// normalized alert. Events without an "alert" sub-record produce nothing.
func NormalizeSuricataEvent(evt *parsers.EveEvent) *models.NormalizedAlert {
	if evt.Alert == nil {
		return nil
	}
	a := evt.Alert

	severity := models.SeverityLow
	if a.Severity != nil {
		switch *a.Severity {
		case 1:
			severity = models.SeverityCritical
		case 2:
			severity = models.SeverityHigh
		case 3:
			severity = models.SeverityMedium
		}
	}

	var sigID int64
	if a.SignatureID != nil {
		sigID = *a.SignatureID
	}
	srcIP := derefStr(evt.SrcIP)
	destIP := derefStr(evt.DestIP)

	fingerprint := fmt.Sprintf("suricata:%d:%s:%s", sigID, srcIP, destIP)
	category := CategorizeSuricata(derefStr(a.Category))

	title := derefStr(a.Signature)
	if title == "" {
		title = fmt.Sprintf("Suricata alert SID %d", sigID)
	}

	signature := derefStr(a.Signature)
	if signature == "" {
		signature = "unknown"
	}

	return &models.NormalizedAlert{
		SourceTool:  "suricata",
		Severity:    severity,
		Category:    category,
		Title:       title,
		Description: fmt.Sprintf("Suricata alert: %s (SID %d) from %s to %s", signature, sigID, srcIP, destIP),
		DeviceIP:    evt.SrcIP,
		Fingerprint: fingerprint,
		RawData: map[string]any{
			"sig_id":    sigID,
			"src_ip":    srcIP,
			"dest_ip":   destIP,
			"src_port":  evt.SrcPort,
			"dest_port": evt.DestPort,
			"proto":     evt.Proto,
			"category":  a.Category,
		},
		Timestamp: models.Now(),
	}
}

// CategorizeSuricata maps a free-text IDS alert category to the closed
// alert-category set via substring match.
func CategorizeSuricata(category string) string {
	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "trojan"), strings.Contains(lower, "malware"), strings.Contains(lower, "virus"):
		return models.CategoryMalware
	case strings.Contains(lower, "intrusion"), strings.Contains(lower, "exploit"), strings.Contains(lower, "shellcode"):
		return models.CategoryIntrusion
	case strings.Contains(lower, "policy"), strings.Contains(lower, "compliance"):
		return models.CategoryPolicyViolation
	case strings.Contains(lower, "scan"), strings.Contains(lower, "recon"), strings.Contains(lower, "information leak"):
		return models.CategoryNetworkThreat
	case strings.Contains(lower, "anomal"):
		return models.CategoryAnomaly
	case strings.Contains(lower, "vuln"):
		return models.CategoryVulnerability
	default:
		return models.CategoryOther
	}
}

// NormalizeZeekRecord converts a Zeek conn.log record into zero or one
// normalized alert. Only the four anomalous connection states become
// alerts; everything else (including records with no conn_state field at
// all) produces nothing.
func NormalizeZeekRecord(record parsers.ZeekRecord) *models.NormalizedAlert {
	connState, ok := record["conn_state"]
	if !ok || !zeekAnomalousStates[connState] {
		return nil
	}

	origH := record["id.orig_h"]
	respH := record["id.resp_h"]
	respP := record["id.resp_p"]
	proto := record["proto"]
	if proto == "" {
		proto = "tcp"
	}

	fingerprint := fmt.Sprintf("zeek:%s:%s:%s:%s:%s", connState, origH, respH, respP, proto)
	rawData := make(map[string]any, len(record))
	for k, v := range record {
		rawData[k] = v
	}

	return &models.NormalizedAlert{
		SourceTool:  "zeek",
		Severity:    models.SeverityLow,
		Category:    models.CategoryAnomaly,
		Title:       fmt.Sprintf("Zeek anomalous connection state: %s", connState),
		Description: fmt.Sprintf("Connection from %s to %s:%s (%s) ended with state %s", origH, respH, respP, proto, connState),
		DeviceIP:    strPtr(origH),
		Fingerprint: fingerprint,
		RawData:     rawData,
		Timestamp:   models.Now(),
	}
}

// NormalizePcapFlow converts an aggregated flow into zero or one normalized
// alert. Only flows above the volume threshold are reported.
func NormalizePcapFlow(flow *parsers.Flow) *models.NormalizedAlert {
	if flow.BytesSent < pcapBytesThreshold && flow.PacketsSent < pcapPacketsThreshold {
		return nil
	}

	fingerprint := fmt.Sprintf("pcap:volume:%s:%s:%d:%s", flow.SrcIP, flow.DstIP, flow.DstPort, flow.Protocol)

	return &models.NormalizedAlert{
		SourceTool:  "pcap",
		Severity:    models.SeverityMedium,
		Category:    models.CategoryAnomaly,
		Title:       fmt.Sprintf("High volume traffic: %s -> %s:%d", flow.SrcIP, flow.DstIP, flow.DstPort),
		Description: fmt.Sprintf("Flow from %s:%d to %s:%d (%s) sent %d bytes in %d packets",
			flow.SrcIP, flow.SrcPort, flow.DstIP, flow.DstPort, flow.Protocol, flow.BytesSent, flow.PacketsSent),
		DeviceIP:    strPtr(flow.SrcIP),
		Fingerprint: fingerprint,
		RawData: map[string]any{
			"src":          flow.SrcIP,
			"dst":          flow.DstIP,
			"src_port":     flow.SrcPort,
			"port":         flow.DstPort,
			"proto":        flow.Protocol,
			"bytes_sent":   flow.BytesSent,
			"packets_sent": flow.PacketsSent,
		},
		Timestamp: models.Now(),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
