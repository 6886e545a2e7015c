// Package config provides configuration loading and defaults for the
// monitor server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the listener and worker-pool settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// Workers bounds how many probes run at once.
	Workers int `yaml:"workers"`
}

// PathsConfig holds filesystem paths read by the probes.
type PathsConfig struct {
	Proc           string `yaml:"proc"`
	Sys            string `yaml:"sys"`
	OSRelease      string `yaml:"os_release"`
	RebootMarker   string `yaml:"reboot_marker"`
	SensorsBinary  string `yaml:"sensors_binary"`
	AptCheckBinary string `yaml:"apt_check_binary"`
}

// ProbesConfig bounds the blocking probes.
type ProbesConfig struct {
	ExecTimeout    time.Duration `yaml:"exec_timeout"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CPUSample      time.Duration `yaml:"cpu_sample"`
	OutboundTarget string        `yaml:"outbound_target"`
}

// ListConfig is a pair of glob allow and deny lists.
type ListConfig struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// FiltersConfig limits which targets the parameterised probes accept.
type FiltersConfig struct {
	Ports  ListConfig `yaml:"ports"`
	Mounts ListConfig `yaml:"mounts"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level configuration structure for the monitor server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Paths   PathsConfig   `yaml:"paths"`
	Probes  ProbesConfig  `yaml:"probes"`
	Filters FiltersConfig `yaml:"filters"`
	Audit   AuditConfig   `yaml:"audit"`
	MCP     MCPConfig     `yaml:"mcp"`
	Log     LogConfig     `yaml:"log"`
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig, so
// keys missing from the file keep their defaults. On error, nil is returned
// for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values. Each
// call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "0.0.0.0",
			Port:    9000,
			Workers: 5,
		},
		Paths: PathsConfig{
			Proc:           "/proc",
			Sys:            "/sys",
			OSRelease:      "/etc/os-release",
			RebootMarker:   "/var/run/reboot-required",
			SensorsBinary:  "/usr/bin/sensors",
			AptCheckBinary: "/usr/lib/update-notifier/apt-check",
		},
		Probes: ProbesConfig{
			ExecTimeout:    10 * time.Second,
			DialTimeout:    2 * time.Second,
			CPUSample:      time.Second,
			OutboundTarget: "8.8.8.8:80",
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "/var/log/monitor/audit.log",
		},
		MCP: MCPConfig{
			Enabled: true,
			Path:    "/mcp",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - MONITOR_ADDRESS overrides cfg.Server.Address
//   - MONITOR_PORT overrides cfg.Server.Port
//   - MONITOR_WORKERS overrides cfg.Server.Workers
//   - MONITOR_LOG_LEVEL overrides cfg.Log.Level
//
// Numeric variables that do not parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MONITOR_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if n, ok := envInt("MONITOR_PORT"); ok {
		cfg.Server.Port = n
	}
	if n, ok := envInt("MONITOR_WORKERS"); ok {
		cfg.Server.Workers = n
	}
	if v := os.Getenv("MONITOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate reports every setting that would stop the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port))
	}
	if c.Server.Workers < 1 {
		errs = append(errs, fmt.Errorf("server.workers must be at least 1, got %d", c.Server.Workers))
	}
	if c.Probes.ExecTimeout < 0 {
		errs = append(errs, errors.New("probes.exec_timeout must not be negative"))
	}
	if c.Probes.DialTimeout < 0 {
		errs = append(errs, errors.New("probes.dial_timeout must not be negative"))
	}
	if c.Probes.CPUSample < 0 {
		errs = append(errs, errors.New("probes.cpu_sample must not be negative"))
	}
	if c.Audit.Enabled && c.Audit.LogPath == "" {
		errs = append(errs, errors.New("audit.log_path is required when audit is enabled"))
	}
	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path %q must start with /", c.MCP.Path))
	}
	return errors.Join(errs...)
}
