package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "relayd",
			LogLevel: "INFO",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Audit: AuditConfig{
			Path: "relayd.db",
		},
		IPC: IPCConfig{
			MaxEndpoints: 32,
			ReplyTimeout: 2 * time.Second,
			BodyTimeout:  5 * time.Second,
		},
	}
}

// Load reads and parses configuration from a YAML file. Values of the form
// ${ENV_VAR} are expanded from the environment before parsing; unset
// variables expand to the empty string.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", absPath, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service.name is empty")
	}
	if c.IPC.MaxEndpoints <= 0 {
		return fmt.Errorf("ipc.max_endpoints must be positive, got %d", c.IPC.MaxEndpoints)
	}
	if c.IPC.ReplyTimeout <= 0 {
		return fmt.Errorf("ipc.reply_timeout must be positive, got %v", c.IPC.ReplyTimeout)
	}
	if c.IPC.BodyTimeout <= 0 {
		return fmt.Errorf("ipc.body_timeout must be positive, got %v", c.IPC.BodyTimeout)
	}
	if c.API.Enabled {
		if c.API.Listen == "" {
			return fmt.Errorf("api.enabled is set but api.listen is empty")
		}
		if c.API.APIKey == "" {
			return fmt.Errorf("api.enabled is set but api.api_key is empty")
		}
	}
	if c.Audit.Path == "" {
		return fmt.Errorf("audit.path is empty")
	}
	return nil
}
