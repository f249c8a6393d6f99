// Package config loads the layered TOML configuration used by the
// daemon: default.toml (required), local.toml (optional overlay), and
// NETSEC__SECTION__KEY environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/netsecio/netsecd/internal/necerr"
)

// Config is the top-level configuration for the netsec platform.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Auth      AuthConfig      `toml:"auth"`
	Alerts    AlertsConfig    `toml:"alerts"`
	Tools     ToolsConfig     `toml:"tools"`
}

// ServerConfig holds the [server] section. The daemon opens no listener and
// does not read these values.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Reload  bool   `toml:"reload"`
	Workers int    `toml:"workers"`
}

// DatabaseConfig configures the embedded store connection.
type DatabaseConfig struct {
	URL  string `toml:"url"`
	Echo bool   `toml:"echo"`
}

// LoggingConfig configures daemon-wide log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SchedulerConfig configures the scheduled-job tick loop.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Timezone string `toml:"timezone"`
}

// AuthConfig configures API key authentication.
type AuthConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
}

// AlertsConfig configures the pipeline's dedup window and rate limiting.
type AlertsConfig struct {
	DedupWindowSeconds int            `toml:"dedup_window_seconds"`
	MaxAlertsPerMinute int            `toml:"max_alerts_per_minute"`
	Dispatch           DispatchConfig `toml:"dispatch"`
}

// DispatchConfig configures the pipeline's outward-facing alert targets.
type DispatchConfig struct {
	WebhookURL    string `toml:"webhook_url"`
	EmailEnabled  bool   `toml:"email_enabled"`
	EmailSMTPHost string `toml:"email_smtp_host"`
	EmailSMTPPort int    `toml:"email_smtp_port"`
	EmailFrom     string `toml:"email_from"`
	EmailTo       string `toml:"email_to"`
}

// ToolsConfig configures active-scan subprocess behavior.
type ToolsConfig struct {
	ScanTimeout        int `toml:"scan_timeout"`
	MaxConcurrentScans int `toml:"max_concurrent_scans"`
}

// DefaultConfig returns the configuration baked into default.toml, used
// both as the file's own values and as the zero-value fallback if a key
// is absent from it.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8420,
			Reload:  false,
			Workers: 1,
		},
		Database: DatabaseConfig{
			URL:  "sqlite:///var/lib/netsecd/netsec.db",
			Echo: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Timezone: "UTC",
		},
		Auth: AuthConfig{
			Enabled: false,
			APIKey:  "",
		},
		Alerts: AlertsConfig{
			DedupWindowSeconds: 300,
			MaxAlertsPerMinute: 100,
			Dispatch: DispatchConfig{
				EmailSMTPPort: 587,
			},
		},
		Tools: ToolsConfig{
			ScanTimeout:        300,
			MaxConcurrentScans: 3,
		},
	}
}

// LoadConfig loads configuration from configDir/default.toml (required),
// overlays configDir/local.toml if present, then applies
// NETSEC__SECTION__KEY environment variable overrides. An empty configDir
// defaults to "config" relative to the current directory.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = "config"
	}

	cfg := DefaultConfig()

	defaultPath := filepath.Join(configDir, "default.toml")
	if _, err := toml.DecodeFile(defaultPath, &cfg); err != nil {
		return nil, necerr.Wrap(necerr.KindConfiguration, "read default.toml", err)
	}

	localPath := filepath.Join(configDir, "local.toml")
	if _, err := os.Stat(localPath); err == nil {
		if _, err := toml.DecodeFile(localPath, &cfg); err != nil {
			return nil, necerr.Wrap(necerr.KindConfiguration, "read local.toml", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides layers NETSEC__SECTION__KEY environment variables over
// the file-loaded config: an explicit Getenv-per-field list rather than a
// generic reflection-based walk. It covers keys the daemon does not read as
// well as those it does; the email dispatch settings (SMTP host, port, from,
// to) have no override.
func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("SERVER__HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnvInt("SERVER__PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := lookupEnvBool("SERVER__RELOAD"); ok {
		cfg.Server.Reload = v
	}
	if v, ok := lookupEnvInt("SERVER__WORKERS"); ok {
		cfg.Server.Workers = v
	}
	if v, ok := lookupEnv("DATABASE__URL"); ok {
		cfg.Database.URL = v
	}
	if v, ok := lookupEnvBool("DATABASE__ECHO"); ok {
		cfg.Database.Echo = v
	}
	if v, ok := lookupEnv("LOGGING__LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookupEnv("LOGGING__FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookupEnvBool("SCHEDULER__ENABLED"); ok {
		cfg.Scheduler.Enabled = v
	}
	if v, ok := lookupEnv("SCHEDULER__TIMEZONE"); ok {
		cfg.Scheduler.Timezone = v
	}
	if v, ok := lookupEnvBool("AUTH__ENABLED"); ok {
		cfg.Auth.Enabled = v
	}
	if v, ok := lookupEnv("AUTH__API_KEY"); ok {
		cfg.Auth.APIKey = v
		cfg.Auth.Enabled = true
	}
	if v, ok := lookupEnvInt("ALERTS__DEDUP_WINDOW_SECONDS"); ok {
		cfg.Alerts.DedupWindowSeconds = v
	}
	if v, ok := lookupEnvInt("ALERTS__MAX_ALERTS_PER_MINUTE"); ok {
		cfg.Alerts.MaxAlertsPerMinute = v
	}
	if v, ok := lookupEnv("ALERTS__DISPATCH__WEBHOOK_URL"); ok {
		cfg.Alerts.Dispatch.WebhookURL = v
	}
	if v, ok := lookupEnvBool("ALERTS__DISPATCH__EMAIL_ENABLED"); ok {
		cfg.Alerts.Dispatch.EmailEnabled = v
	}
	if v, ok := lookupEnvInt("TOOLS__SCAN_TIMEOUT"); ok {
		cfg.Tools.ScanTimeout = v
	}
	if v, ok := lookupEnvInt("TOOLS__MAX_CONCURRENT_SCANS"); ok {
		cfg.Tools.MaxConcurrentScans = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv("NETSEC__" + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func lookupEnvInt(key string) (int, bool) {
	v, ok := lookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupEnvBool(key string) (bool, bool) {
	v, ok := lookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return necerr.New(necerr.KindConfiguration, fmt.Sprintf("server.port out of range: %d", cfg.Server.Port))
	}
	if cfg.Alerts.MaxAlertsPerMinute < 0 {
		return necerr.New(necerr.KindConfiguration, "alerts.max_alerts_per_minute must not be negative")
	}
	if cfg.Tools.MaxConcurrentScans < 1 {
		return necerr.New(necerr.KindConfiguration, "tools.max_concurrent_scans must be at least 1")
	}
	return nil
}
