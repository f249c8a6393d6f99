// Package scanner runs active nmap-based discovery scans: building nmap
// arguments, executing the binary, parsing results, persisting discovered
// hosts/ports, and classifying device type.
package scanner

import (
	"strings"

	"github.com/netsecio/netsecd/internal/models"
)

// ouiTable is a curated subset of IEEE OUI prefixes, not a full database.
var ouiTable = map[string]string{
	"00:00:0C": "Cisco",
	"00:1A:2B": "Ayecom",
	"00:1B:63": "Apple",
	"00:1E:C2": "Apple",
	"00:50:56": "VMware",
	"00:0C:29": "VMware",
	"00:15:5D": "Microsoft",
	"00:1A:A0": "Dell",
	"00:14:22": "Dell",
	"00:25:B5": "Intel",
	"00:1B:21": "Intel",
	"3C:D9:2B": "HP",
	"00:1A:4B": "HP",
	"B8:27:EB": "Raspberry Pi Foundation",
	"DC:A6:32": "Raspberry Pi Foundation",
	"AC:DE:48": "Samsung",
	"00:1A:8A": "Samsung",
	"F8:1A:67": "TP-Link",
	"00:1D:7E": "Cisco",
	"00:26:CB": "Cisco",
	"00:17:88": "Signify N.V.",
	"44:D9:E7": "Ubiquiti",
	"80:2A:A8": "Ubiquiti",
	"00:1B:44": "SanDisk",
	"2C:F0:5D": "Juniper",
}

// LookupOUI returns the vendor name for a MAC address's first three octets,
// or "" if the MAC is too short or the prefix isn't in the table.
func LookupOUI(mac string) string {
	normalized := strings.ToUpper(mac)
	if len(normalized) < 8 {
		return ""
	}
	return ouiTable[normalized[:8]]
}

var serverPorts = map[int]bool{22: true, 80: true, 443: true, 8080: true, 3306: true, 5432: true}

// ClassifyDevice assigns a DeviceType and confidence to a device from its
// open ports, OS hint, and vendor string. Rules are checked in priority
// order and the first match wins.
func ClassifyDevice(ports []*models.Port, osHint, vendor string) (models.DeviceType, float64) {
	if osHint != "" {
		lower := strings.ToLower(osHint)
		if strings.Contains(lower, "ios") || strings.Contains(lower, "android") {
			return models.DeviceMobile, 0.8
		}
	}

	if vendor != "" {
		lower := strings.ToLower(vendor)
		if strings.Contains(lower, "cisco") || strings.Contains(lower, "juniper") || strings.Contains(lower, "ubiquiti") {
			return models.DeviceRouter, 0.7
		}
	}

	portNumbers := make(map[int]bool, len(ports))
	for _, p := range ports {
		portNumbers[p.PortNumber] = true
	}

	if portNumbers[631] || portNumbers[9100] {
		return models.DevicePrinter, 0.7
	}

	hasHTTP := portNumbers[80] || portNumbers[443] || portNumbers[8080]
	if (portNumbers[1883] || portNumbers[5353]) && !hasHTTP {
		return models.DeviceIoT, 0.6
	}

	serverCount := 0
	for p := range portNumbers {
		if serverPorts[p] {
			serverCount++
		}
	}
	if serverCount >= 2 {
		return models.DeviceServer, 0.7
	}

	if portNumbers[3389] {
		return models.DeviceWorkstation, 0.6
	}

	return models.DeviceUnknown, 0.0
}
