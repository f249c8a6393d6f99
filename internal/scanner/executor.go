package scanner

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/parsers"
	"github.com/netsecio/netsecd/internal/platform"
)

var nmapFallbackPaths = []string{
	"/usr/bin/nmap",
	"/usr/local/bin/nmap",
	"/opt/homebrew/bin/nmap",
	`C:\Program Files (x86)\Nmap\nmap.exe`,
	`C:\Program Files\Nmap\nmap.exe`,
}

// FindNmapBinary locates the nmap executable via PATH lookup, falling back
// to a list of common install locations. Returns "" if nmap can't be found.
func FindNmapBinary() string {
	if path, err := exec.LookPath("nmap"); err == nil && path != "" {
		return path
	}

	for _, path := range nmapFallbackPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}

// CheckScanPrivileges reports an error if the scan type needs elevation
// the current process doesn't have. Discovery scans (ping only) never
// need elevation; everything else uses a SYN scan, which needs raw
// sockets.
func CheckScanPrivileges(scanType models.ScanType) error {
	if scanType == models.ScanTypeDiscovery {
		return nil
	}
	if platform.IsElevated() {
		return nil
	}
	return necerr.New(necerr.KindPrivilege, "requires elevated privileges for SYN scan (-sS)")
}

// ExecuteNmap finds the nmap binary, checks privileges, runs the scan, and
// parses its XML output.
func ExecuteNmap(ctx context.Context, cfg ScanConfig) (*parsers.NmapScanResult, error) {
	nmapPath := FindNmapBinary()
	if nmapPath == "" {
		return nil, necerr.New(necerr.KindSubprocess, "nmap binary not found; install nmap or add it to PATH")
	}

	if err := CheckScanPrivileges(cfg.ScanType); err != nil {
		return nil, err
	}

	args := BuildNmapArgs(cfg)

	cmd := exec.CommandContext(ctx, nmapPath, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, necerr.Wrap(necerr.KindSubprocess,
			"nmap exited with error: "+strings.TrimSpace(stderr.String()), err)
	}

	return parsers.ParseNmapXML(stdout.String())
}
