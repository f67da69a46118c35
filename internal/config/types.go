package config

import "time"

// Config represents the complete relayd configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	API     APIConfig     `yaml:"api,omitempty"`
	Audit   AuditConfig   `yaml:"audit"`
	IPC     IPCConfig     `yaml:"ipc"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
}

// AuditConfig defines where the command audit trail is stored.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// IPCConfig tunes the control channels.
type IPCConfig struct {
	MaxEndpoints int           `yaml:"max_endpoints"`
	ReplyTimeout time.Duration `yaml:"reply_timeout"`
	BodyTimeout  time.Duration `yaml:"body_timeout"`
}
