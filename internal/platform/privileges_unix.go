//go:build !windows

package platform

import "os"

// IsElevated reports whether the process has raw-socket-capable privileges.
// On Unix this means running as root (euid 0); SYN scans and OS
// fingerprinting need this, ICMP/ARP discovery scans don't.
func IsElevated() bool {
	return os.Geteuid() == 0
}
