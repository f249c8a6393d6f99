package models

import "time"

// Severity is the closed set of alert severities, ordered low to high.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityScores maps a Severity to its integer score (0-4), used by the
// pipeline's scoring stage.
var severityScores = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

var scoreSeverities = [...]Severity{
	SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical,
}

// Score returns the integer 0-4 score for a severity.
func (s Severity) Score() int {
	if v, ok := severityScores[s]; ok {
		return v
	}
	return 0
}

// SeverityFromScore maps a clamped 0-4 integer score back to a Severity.
func SeverityFromScore(score int) Severity {
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	return scoreSeverities[score]
}

// Alert categories. Category is stored as a plain string (not a DB-level
// enum) but producers should stick to this closed set.
const (
	CategoryVulnerability   = "vulnerability"
	CategoryMalware         = "malware"
	CategoryIntrusion       = "intrusion"
	CategoryPolicyViolation = "policy-violation"
	CategoryNetworkThreat   = "network-threat"
	CategoryAnomaly         = "anomaly"
	CategoryOther           = "other"
)

// AlertStatus is the closed set of alert lifecycle states.
type AlertStatus string

const (
	AlertNew          AlertStatus = "new"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertDismissed    AlertStatus = "dismissed"
)

// Alert is a persisted finding.
type Alert struct {
	ID            string
	Severity      Severity
	Status        AlertStatus
	SourceTool    string
	Category      string
	Title         string
	Description   string
	DeviceIP      *string
	Fingerprint   string
	CorrelationID *string
	Count         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Notes         *string
}

// NewAlert builds a fresh Alert row ready for insertion: new id, "new"
// status, count 1, current timestamps.
func NewAlert(na *NormalizedAlert, severity Severity, correlationID *string) *Alert {
	now := Now()
	return &Alert{
		ID:            NewID(),
		Severity:      severity,
		Status:        AlertNew,
		SourceTool:    na.SourceTool,
		Category:      na.Category,
		Title:         na.Title,
		Description:   na.Description,
		DeviceIP:      na.DeviceIP,
		Fingerprint:   na.Fingerprint,
		CorrelationID: correlationID,
		Count:         1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NormalizedAlert is the in-flight, parser-agnostic shape fed into the
// pipeline. It is never persisted directly.
type NormalizedAlert struct {
	SourceTool  string
	Severity    Severity
	Category    string
	Title       string
	Description string
	DeviceIP    *string
	Fingerprint string
	RawData     map[string]any
	Timestamp   time.Time
}
