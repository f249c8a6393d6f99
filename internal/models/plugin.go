package models

// PluginCategory is the closed set of plugin capability groups.
type PluginCategory string

const (
	PluginNetworkScanner      PluginCategory = "network_scanner"
	PluginIdsIps              PluginCategory = "ids_ips"
	PluginVulnerabilityScanner PluginCategory = "vulnerability_scanner"
	PluginMalwareScanner      PluginCategory = "malware_scanner"
	PluginPassiveDiscovery    PluginCategory = "passive_discovery"
	PluginScheduler           PluginCategory = "scheduler"
)

// PluginStatus is the closed set of plugin operational states.
type PluginStatus string

const (
	PluginAvailable PluginStatus = "available"
	PluginRunning   PluginStatus = "running"
	PluginError     PluginStatus = "error"
)

// PluginInfo is metadata describing a registered plugin.
type PluginInfo struct {
	Name        string
	Version     string
	Category    PluginCategory
	Status      PluginStatus
	Description string
}
