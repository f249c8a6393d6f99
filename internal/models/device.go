package models

import "time"

// DeviceType is the closed set of device classifications.
type DeviceType string

const (
	DeviceRouter      DeviceType = "router"
	DeviceServer      DeviceType = "server"
	DeviceFirewall    DeviceType = "firewall"
	DeviceDatabase    DeviceType = "database"
	DeviceWorkstation DeviceType = "workstation"
	DeviceMobile      DeviceType = "mobile"
	DeviceIoT         DeviceType = "iot"
	DevicePrinter     DeviceType = "printer"
	DeviceCamera      DeviceType = "camera"
	DeviceCloud       DeviceType = "cloud"
	DeviceExtender    DeviceType = "extender"
	DeviceUnknown     DeviceType = "unknown"
)

// DeviceStatus is the closed set of device statuses.
type DeviceStatus string

const (
	DeviceOnline     DeviceStatus = "online"
	DeviceOffline    DeviceStatus = "offline"
	DeviceWarning    DeviceStatus = "warning"
	DeviceCompromised DeviceStatus = "compromised"
)

// Device is a network endpoint identified by its IP address.
type Device struct {
	ID                        string
	IP                        string
	MAC                       *string
	Hostname                  *string
	Vendor                    *string
	OSFamily                  *string
	OSVersion                 *string
	DeviceType                DeviceType
	ClassificationConfidence  float64
	Status                    DeviceStatus
	Notes                     *string
	FirstSeen                 time.Time
	LastSeen                  time.Time
}

// NewDevice creates a Device in its initial discovered state.
func NewDevice(ip string) *Device {
	now := Now()
	return &Device{
		ID:         NewID(),
		IP:         ip,
		DeviceType: DeviceUnknown,
		Status:     DeviceOnline,
		FirstSeen:  now,
		LastSeen:   now,
	}
}
