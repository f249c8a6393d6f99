package pipeline

import "github.com/netsecio/netsecd/internal/models"

// Score adjusts a normalized alert's severity by one level if its raw data
// references a port in the configured critical-port list, clamping at
// critical.
func Score(alert *models.NormalizedAlert, criticalPorts []int) models.Severity {
	numeric := alert.Severity.Score()

	if IsCriticalPortAlert(alert, criticalPorts) {
		numeric++
	}
	if numeric > 4 {
		numeric = 4
	}

	return models.SeverityFromScore(numeric)
}

// IsCriticalPortAlert checks the alert's raw_data for a port/dst_port/
// dest_port field matching a critical port.
func IsCriticalPortAlert(alert *models.NormalizedAlert, criticalPorts []int) bool {
	for _, key := range []string{"port", "dst_port", "dest_port"} {
		v, ok := alert.RawData[key]
		if !ok {
			continue
		}
		port, ok := toInt(v)
		if !ok {
			continue
		}
		for _, cp := range criticalPorts {
			if cp == port {
				return true
			}
		}
	}
	return false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
