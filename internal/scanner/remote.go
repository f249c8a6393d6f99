package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/sshexec"
	"github.com/netsecio/netsecd/internal/winrm"
)

// Remote port checks cover hosts the scanning appliance cannot reach
// directly with nmap — typically a segment behind a jump host or domain
// controller the platform already holds WinRM/SSH credentials for. Each port
// is probed as reachable or not, and only the reachable ports are reported
// (as open); closed and filtered ports are not told apart. No nmap is
// needed on the target.

// remotePortScript renders the PowerShell used to probe a set of TCP ports
// on a Windows host via Test-NetConnection, returning JSON line-by-line.
func remotePortScript(ports []int) string {
	var specs []string
	for _, p := range ports {
		specs = append(specs, strconv.Itoa(p))
	}
	return fmt.Sprintf(`$ports = @(%s)
$results = foreach ($p in $ports) {
  $ok = Test-NetConnection -ComputerName localhost -Port $p -WarningAction SilentlyContinue -InformationLevel Quiet
  [PSCustomObject]@{ port = $p; open = [bool]$ok }
}
$results | ConvertTo-Json -Compress`, strings.Join(specs, ","))
}

// ExecuteRemoteWindowsPortCheck probes ports on a Windows target reachable
// only via WinRM, returning the ports found open.
func ExecuteRemoteWindowsPortCheck(exec *winrm.Executor, target *winrm.Target, ports []int) ([]DiscoveredPort, error) {
	result := exec.Execute(target, remotePortScript(ports), 60, 1, 5.0)
	if !result.Success {
		return nil, necerr.New(necerr.KindNetwork, "remote windows port check failed: "+result.Error)
	}

	stdout, _ := result.Output["std_out"].(string)
	return parseRemotePortResults(stdout)
}

// remoteLinuxPortScript renders the bash used to probe TCP ports via
// /dev/tcp, avoiding any dependency on nmap being installed on the target.
func remoteLinuxPortScript(ports []int) string {
	var checks []string
	for _, p := range ports {
		checks = append(checks, fmt.Sprintf(
			`(timeout 2 bash -c "exec 3<>/dev/tcp/127.0.0.1/%d" 2>/dev/null && echo '{"port":%d,"open":true}' || echo '{"port":%d,"open":false}')`,
			p, p, p))
	}
	return "echo '[' ; " + strings.Join(checks, " ; echo ',' ; ") + " ; echo ']'"
}

// ExecuteRemoteLinuxPortCheck probes ports on a Linux target reachable only
// via SSH (e.g. through a bastion host), returning the ports found open.
func ExecuteRemoteLinuxPortCheck(ctx context.Context, exec *sshexec.Executor, target *sshexec.Target, ports []int) ([]DiscoveredPort, error) {
	result := exec.Execute(ctx, target, remoteLinuxPortScript(ports), 30, 1, 2.0, false)
	if !result.Success {
		return nil, necerr.New(necerr.KindNetwork, "remote linux port check failed: "+result.Error)
	}

	stdout, _ := result.Output["stdout"].(string)
	return parseRemotePortResults(stdout)
}

type remotePortResult struct {
	Port int  `json:"port"`
	Open bool `json:"open"`
}

func parseRemotePortResults(raw string) ([]DiscoveredPort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var results []remotePortResult
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &results); err != nil {
			return nil, necerr.Wrap(necerr.KindParse, "parse remote port check output", err)
		}
	} else {
		// A single-port probe returns a bare JSON object rather than an array.
		var single remotePortResult
		if err := json.Unmarshal([]byte(raw), &single); err != nil {
			return nil, necerr.Wrap(necerr.KindParse, "parse remote port check output", err)
		}
		results = append(results, single)
	}

	var open []DiscoveredPort
	for _, r := range results {
		if !r.Open {
			continue
		}
		open = append(open, DiscoveredPort{
			Port:     r.Port,
			Protocol: "tcp",
			State:    "open",
		})
	}
	return open, nil
}
