// Package platform provides OS detection and privilege checks used by the
// scanner to pick scan arguments and refuse scans that would fail silently
// for lack of elevation.
package platform

import "runtime"

// OSType is the closed set of operating system families the scanner knows
// how to special-case.
type OSType string

const (
	OSLinux   OSType = "linux"
	OSMacOS   OSType = "macos"
	OSWindows OSType = "windows"
	OSUnknown OSType = "unknown"
)

// Detect returns the current operating system family.
func Detect() OSType {
	switch runtime.GOOS {
	case "linux":
		return OSLinux
	case "darwin":
		return OSMacOS
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}
