package store

import (
	"context"
	"log"
	"strings"

	"github.com/netsecio/netsecd/internal/necerr"
)

// migration is one named, idempotent schema step. Statements are split on
// ";" and run individually so that a "duplicate column name" error from an
// ALTER TABLE ADD COLUMN can be swallowed without aborting the rest of the
// migration.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{"001_create_devices", sqlCreateDevices},
	{"002_create_ports", sqlCreatePorts},
	{"003_create_alerts", sqlCreateAlerts},
	{"004_create_scans", sqlCreateScans},
	{"005_create_vulnerabilities", sqlCreateVulnerabilities},
	{"006_create_traffic_flows", sqlCreateTrafficFlows},
	{"007_create_device_events", sqlCreateDeviceEvents},
	{"008_create_observations", sqlCreateObservations},
	{"009_create_scheduled_jobs", sqlCreateScheduledJobs},
	{"010_add_alert_notes", sqlAddAlertNotes},
	{"011_add_device_fields", sqlAddDeviceFields},
	{"012_add_alert_fields", sqlAddAlertFields},
	{"013_add_vuln_fields", sqlAddVulnFields},
}

// migrate runs every migration in order. The only tolerated error is a
// SQLite "duplicate column name" failure from an ALTER TABLE ADD COLUMN
// statement that has already been applied; any other error is fatal.
func (s *Store) migrate(ctx context.Context) error {
	for _, m := range migrations {
		for _, stmt := range strings.Split(m.sql, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			_, err := s.db.ExecContext(ctx, stmt)
			if err == nil {
				continue
			}
			if strings.Contains(err.Error(), "duplicate column name") {
				log.Printf("[store] migration %s: column already exists, skipping", m.name)
				continue
			}
			return necerr.Wrap(necerr.KindStore, "run migration "+m.name, err)
		}
	}
	return nil
}

const sqlCreateDevices = `
CREATE TABLE IF NOT EXISTS devices (
	id TEXT PRIMARY KEY,
	ip TEXT NOT NULL UNIQUE,
	mac TEXT,
	hostname TEXT,
	vendor TEXT,
	os_family TEXT,
	os_version TEXT,
	device_type TEXT NOT NULL DEFAULT 'unknown',
	classification_confidence REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'online',
	notes TEXT,
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL
)`

// sqlCreatePorts creates the ports table.
const sqlCreatePorts = `
CREATE TABLE IF NOT EXISTS ports (
	id TEXT PRIMARY KEY,
	device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	port_number INTEGER NOT NULL,
	protocol TEXT NOT NULL,
	state TEXT,
	service_name TEXT,
	service_version TEXT,
	banner TEXT,
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL,
	UNIQUE(device_id, port_number, protocol)
)`

const sqlCreateAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	severity TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	source_tool TEXT NOT NULL,
	category TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	device_ip TEXT,
	fingerprint TEXT NOT NULL,
	correlation_id TEXT,
	count INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const sqlCreateScans = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	scan_type TEXT NOT NULL,
	tool TEXT NOT NULL,
	target TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'running',
	progress REAL NOT NULL DEFAULT 0,
	parameters TEXT,
	results TEXT,
	started_at TEXT,
	completed_at TEXT,
	created_at TEXT NOT NULL
)`

const sqlCreateVulnerabilities = `
CREATE TABLE IF NOT EXISTS vulnerabilities (
	id TEXT PRIMARY KEY,
	device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	cve_id TEXT,
	title TEXT NOT NULL,
	severity TEXT NOT NULL,
	description TEXT,
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL
)`

const sqlCreateTrafficFlows = `
CREATE TABLE IF NOT EXISTS traffic_flows (
	id TEXT PRIMARY KEY,
	src_ip TEXT NOT NULL,
	dst_ip TEXT NOT NULL,
	src_port INTEGER NOT NULL,
	dst_port INTEGER NOT NULL,
	protocol TEXT NOT NULL,
	bytes_sent INTEGER NOT NULL DEFAULT 0,
	packets_sent INTEGER NOT NULL DEFAULT 0,
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL
)`

const sqlCreateDeviceEvents = `
CREATE TABLE IF NOT EXISTS device_events (
	id TEXT PRIMARY KEY,
	device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	event_type TEXT NOT NULL,
	data TEXT,
	created_at TEXT NOT NULL
)`

const sqlCreateObservations = `
CREATE TABLE IF NOT EXISTS observations (
	id TEXT PRIMARY KEY,
	device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	protocol TEXT NOT NULL,
	data TEXT,
	created_at TEXT NOT NULL
)`

const sqlCreateScheduledJobs = `
CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id TEXT PRIMARY KEY,
	trigger_type TEXT NOT NULL,
	trigger_args TEXT NOT NULL,
	task_type TEXT NOT NULL,
	task_params TEXT,
	enabled INTEGER NOT NULL DEFAULT 1,
	next_run TEXT,
	last_run TEXT,
	created_at TEXT NOT NULL
)`

const sqlAddAlertNotes = `ALTER TABLE alerts ADD COLUMN notes TEXT`

const sqlAddDeviceFields = `ALTER TABLE devices ADD COLUMN risk_score REAL NOT NULL DEFAULT 0`

const sqlAddAlertFields = `ALTER TABLE alerts ADD COLUMN assignee TEXT`

const sqlAddVulnFields = `ALTER TABLE vulnerabilities ADD COLUMN remediation TEXT`
