package models

import "time"

// Port is an open or filtered service observed on a Device. Unique per
// (device, port number, protocol).
type Port struct {
	ID             string
	DeviceID       string
	PortNumber     int
	Protocol       string
	State          string
	ServiceName    *string
	ServiceVersion *string
	Banner         *string
	FirstSeen      time.Time
	LastSeen       time.Time
}

// NewPort creates a Port for the given device, port number, and protocol.
func NewPort(deviceID string, portNumber int, protocol string) *Port {
	now := Now()
	return &Port{
		ID:         NewID(),
		DeviceID:   deviceID,
		PortNumber: portNumber,
		Protocol:   protocol,
		FirstSeen:  now,
		LastSeen:   now,
	}
}
