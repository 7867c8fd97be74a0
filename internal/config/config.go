// Package config handles configuration loading and the prompt library
// for Wakili.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wakili/wakili/internal/client"
)

// Defaults applied when the rc file or a field is absent.
const (
	DefaultAPIURL         = "http://localhost:8002"
	DefaultTimeoutSeconds = 300
)

// LogConfig configures the shell's logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
	// File is an optional log file path; empty logs to console only.
	File string `yaml:"file"`
	// MaxSizeMB is the rotation threshold for the log file.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep.
	MaxBackups int `yaml:"max_backups"`
	// JSON switches log output to JSON records.
	JSON bool `yaml:"json"`
}

// Config is the complete Wakili client configuration.
type Config struct {
	// APIURL is the base URL of the Wakili server.
	APIURL string `yaml:"api_url"`

	// PhoneNumber is the identity used for the verification flow.
	PhoneNumber string `yaml:"phone_number"`

	// APIKey bypasses phone verification when set.
	APIKey string `yaml:"api_key"`

	// Model is the backend model name.
	Model string `yaml:"model"`

	// AgentType is the backend reasoning mode ("react" or "deep_react").
	AgentType string `yaml:"agent_type"`

	// ThreadID groups queries into one conversation.
	ThreadID string `yaml:"thread_id"`

	// SystemPrompt overrides the agent's default instructions.
	SystemPrompt string `yaml:"system_prompt"`

	// RequestTimeout is the per-request timeout in seconds.
	RequestTimeout float64 `yaml:"request_timeout"`

	// RequireAuth controls the local authentication precondition on
	// queries. Defaults to true; set false to allow anonymous queries
	// (the server still decides whether to accept them).
	RequireAuth *bool `yaml:"require_auth"`

	// Logging configures the shell's log output.
	Logging LogConfig `yaml:"logging"`
}

// Default returns the configuration used when no rc file exists.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		Model:          client.DefaultModel,
		AgentType:      string(client.AgentReact),
		ThreadID:       client.DefaultThreadID,
		RequestTimeout: DefaultTimeoutSeconds,
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeout * float64(time.Second))
}

// AuthRequired reports the effective require_auth setting.
func (c *Config) AuthRequired() bool {
	return c.RequireAuth == nil || *c.RequireAuth
}

// Validate checks field values that would otherwise surface as
// confusing request failures later.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url cannot be empty")
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not a valid URL", c.APIURL)
	}
	if c.AgentType != "" {
		if _, err := client.ParseAgentType(c.AgentType); err != nil {
			return fmt.Errorf("agent_type: %w", err)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}
	return nil
}

// DefaultConfigPath returns the rc file path for the current platform.
// The WAKILIRC environment variable overrides it.
func DefaultConfigPath() string {
	if envPath := os.Getenv("WAKILIRC"); envPath != "" {
		return envPath
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = home
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = xdgConfig
		} else {
			home, _ := os.UserHomeDir()
			configDir = home
		}
	}

	return filepath.Join(configDir, ".wakilirc")
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, filling unset fields with
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the rc file at path, falling back to defaults
// when the file does not exist. Parse failures of an existing file are
// still reported.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
