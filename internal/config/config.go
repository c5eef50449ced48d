// Package config loads the process-level configuration for an injectorctl
// deployment: which host clock drives the tick dispatcher, which
// diagnostics sinks are enabled, and where they connect to. It follows a
// file-then-environment-override pattern: a YAML file supplies defaults,
// and environment variables override individual fields on top of it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	HostClock   HostClockConfig   `yaml:"host_clock"`
}

// LoggingConfig controls the *log.Logger every component shares.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DiagnosticsConfig controls the optional diagnostics exporters.
type DiagnosticsConfig struct {
	HTTP  HTTPDiagnosticsConfig  `yaml:"http"`
	Redis RedisDiagnosticsConfig `yaml:"redis"`
	Audit AuditDiagnosticsConfig `yaml:"audit"`
}

// HTTPDiagnosticsConfig controls the gin diagnostics server.
type HTTPDiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RedisDiagnosticsConfig controls the Redis observational mirror.
type RedisDiagnosticsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// AuditDiagnosticsConfig controls the Postgres audit log.
type AuditDiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

// HostClockConfig selects and configures the tick.Host implementation.
type HostClockConfig struct {
	// Source is "local" or "nats".
	Source         string        `yaml:"source"`
	Rendering      bool          `yaml:"rendering"`
	LogicInterval  time.Duration `yaml:"logic_interval"`
	RenderInterval time.Duration `yaml:"render_interval"`
	NATS           NATSConfig    `yaml:"nats"`
}

// NATSConfig is used when HostClockConfig.Source is "nats".
type NATSConfig struct {
	URLs           []string      `yaml:"urls"`
	StreamName     string        `yaml:"stream_name"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Default returns the configuration a headless, diagnostics-free deployment
// starts from.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Diagnostics: DiagnosticsConfig{
			HTTP: HTTPDiagnosticsConfig{Enabled: false, Addr: ":8090"},
		},
		HostClock: HostClockConfig{
			Source:         "local",
			Rendering:      false,
			LogicInterval:  50 * time.Millisecond,
			RenderInterval: 16 * time.Millisecond,
			NATS: NATSConfig{
				URLs:           []string{"nats://localhost:4222"},
				StreamName:     "di-tick",
				SubjectPrefix:  "di",
				MaxReconnects:  5,
				ReconnectWait:  2 * time.Second,
				ConnectTimeout: 5 * time.Second,
			},
		},
	}
}

// Load reads path (if non-empty) over Default and applies environment
// overrides on top. An empty path yields Default plus the overrides; a
// non-empty path that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("DI_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("DI_DIAG_HTTP_ENABLED"); val != "" {
		cfg.Diagnostics.HTTP.Enabled = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("DI_DIAG_HTTP_ADDR"); val != "" {
		cfg.Diagnostics.HTTP.Addr = val
	}
	if val := os.Getenv("DI_DIAG_REDIS_ENABLED"); val != "" {
		cfg.Diagnostics.Redis.Enabled = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("DI_DIAG_REDIS_ADDR"); val != "" {
		cfg.Diagnostics.Redis.Addr = val
	}
	if val := os.Getenv("DI_DIAG_AUDIT_ENABLED"); val != "" {
		cfg.Diagnostics.Audit.Enabled = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("DI_DIAG_AUDIT_DSN"); val != "" {
		cfg.Diagnostics.Audit.DSN = val
	}
	if val := os.Getenv("DI_HOST_CLOCK_SOURCE"); val != "" {
		cfg.HostClock.Source = val
	}
	if val := os.Getenv("DI_HOST_CLOCK_RENDERING"); val != "" {
		cfg.HostClock.Rendering = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("DI_HOST_CLOCK_LOGIC_INTERVAL_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			cfg.HostClock.LogicInterval = time.Duration(ms) * time.Millisecond
		}
	}
}
