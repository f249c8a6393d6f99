// Package passive implements mDNS and SSDP response parsing and the
// device-upsert logic that turns a parsed response into a store write.
package passive

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/store"
)

// MdnsRecord is a parsed mDNS record.
type MdnsRecord struct {
	Hostname    string
	ServiceType string
	IP          string
	Port        int
}

// SsdpDevice is a parsed SSDP M-SEARCH response.
type SsdpDevice struct {
	Location string
	Server   string
	USN      string
	ST       string
}

// ParseMdnsName parses an mDNS service name like "_http._tcp.local" into
// ("http", "tcp"). Returns ok=false if the name doesn't match the
// "_<service>._<proto>" pattern.
func ParseMdnsName(name string) (service, proto string, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return "", "", false
	}
	servicePart, protoPart := parts[0], parts[1]
	if !strings.HasPrefix(servicePart, "_") || !strings.HasPrefix(protoPart, "_") {
		return "", "", false
	}
	service = strings.TrimPrefix(servicePart, "_")
	proto = strings.TrimPrefix(protoPart, "_")
	if service == "" || proto == "" {
		return "", "", false
	}
	return service, proto, true
}

// ParseSsdpResponse parses an SSDP M-SEARCH response's HTTP-like headers.
// Requires at minimum a LOCATION header; returns nil otherwise.
func ParseSsdpResponse(response string) *SsdpDevice {
	if strings.TrimSpace(response) == "" {
		return nil
	}

	var dev SsdpDevice
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), "\r")
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "LOCATION":
			dev.Location = value
		case "SERVER":
			dev.Server = value
		case "USN":
			dev.USN = value
		case "ST":
			dev.ST = value
		}
	}

	if dev.Location == "" {
		return nil
	}
	return &dev
}

// ProcessMdnsDiscovery upserts a device from an mDNS record and records an
// observation. If a device with the given IP already exists, its hostname
// is only filled in when absent; status and last_seen are always updated.
func ProcessMdnsDiscovery(ctx context.Context, st *store.Store, bus *eventbus.Bus, record *MdnsRecord, sourceIP string) (*models.Device, error) {
	ip := record.IP
	if ip == "" {
		ip = sourceIP
	}

	device, isNew, err := upsertDeviceByIP(ctx, st, ip, record.Hostname)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]any{
		"hostname":     record.Hostname,
		"service_type": record.ServiceType,
		"ip":           record.IP,
		"port":         record.Port,
	})
	if err := st.InsertObservation(ctx, models.NewObservation(device.ID, "mdns", string(data))); err != nil {
		return nil, err
	}

	publishDiscovery(bus, device, isNew, "passive.mdns")
	return device, nil
}

// ProcessSsdpDiscovery upserts a device from an SSDP response and records an
// observation. Same upsert rules as ProcessMdnsDiscovery, merging the
// SSDP server string into hostname when absent.
func ProcessSsdpDiscovery(ctx context.Context, st *store.Store, bus *eventbus.Bus, ssdp *SsdpDevice, sourceIP string) (*models.Device, error) {
	device, isNew, err := upsertDeviceByIP(ctx, st, sourceIP, ssdp.Server)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]any{
		"location": ssdp.Location,
		"server":   ssdp.Server,
		"usn":      ssdp.USN,
		"st":       ssdp.ST,
	})
	if err := st.InsertObservation(ctx, models.NewObservation(device.ID, "ssdp", string(data))); err != nil {
		return nil, err
	}

	publishDiscovery(bus, device, isNew, "passive.ssdp")
	return device, nil
}

// upsertDeviceByIP finds or creates a device for ip, marking it online and
// filling in hostname only if it was previously unset.
func upsertDeviceByIP(ctx context.Context, st *store.Store, ip, hostname string) (device *models.Device, isNew bool, err error) {
	existing, err := st.GetDeviceByIP(ctx, ip)
	if err != nil {
		return nil, false, err
	}

	now := models.Now()
	if existing != nil {
		existing.LastSeen = now
		existing.Status = models.DeviceOnline
		if existing.Hostname == nil && hostname != "" {
			existing.Hostname = &hostname
		}
		if err := st.UpdateDevice(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	d := models.NewDevice(ip)
	if hostname != "" {
		d.Hostname = &hostname
	}
	d.Status = models.DeviceOnline
	d.LastSeen = now
	d.FirstSeen = now
	if err := st.InsertDevice(ctx, d); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func publishDiscovery(bus *eventbus.Bus, device *models.Device, isNew bool, source string) {
	if bus == nil {
		return
	}
	eventType := eventbus.EventDeviceDiscovered
	if !isNew {
		eventType = eventbus.EventDeviceUpdated
	}
	bus.Publish(eventbus.Event{
		Type:      eventType,
		ID:        models.NewID(),
		Timestamp: models.Now(),
		Source:    source,
		Data: map[string]any{
			"device_id": device.ID,
			"ip":        device.IP,
		},
	})
}
