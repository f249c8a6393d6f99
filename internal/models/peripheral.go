package models

import "time"

// Vulnerability is a finding attached to a Device, written by scanners and
// read by API consumers.
type Vulnerability struct {
	ID          string
	DeviceID    string
	CVEID       *string
	Title       string
	Severity    Severity
	Description *string
	Remediation *string
	FirstSeen   time.Time
	LastSeen    time.Time
}

// TrafficFlow is an aggregated 5-tuple flow summary.
type TrafficFlow struct {
	ID          string
	SrcIP       string
	DstIP       string
	SrcPort     int
	DstPort     int
	Protocol    string
	BytesSent   int64
	PacketsSent int64
	FirstSeen   time.Time
	LastSeen    time.Time
}

// DeviceEvent is a written-only lifecycle event for a Device.
type DeviceEvent struct {
	ID        string
	DeviceID  string
	EventType string
	Data      string
	CreatedAt time.Time
}

// Observation is a raw evidence snippet from a discovery protocol.
type Observation struct {
	ID        string
	DeviceID  string
	Protocol  string
	Data      string
	CreatedAt time.Time
}

// NewObservation builds an Observation with the current timestamp.
func NewObservation(deviceID, protocol, data string) *Observation {
	return &Observation{
		ID:        NewID(),
		DeviceID:  deviceID,
		Protocol:  protocol,
		Data:      data,
		CreatedAt: Now(),
	}
}
