// ABOUTME: Configuration loading and parsing for parlord
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parlord configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Provider  ProviderConfig  `yaml:"provider"`
	Streaming StreamingConfig `yaml:"streaming"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig selects and configures the persistence backend
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres". Defaults to sqlite.
	Driver string `yaml:"driver"`
	// Path is the SQLite database file (sqlite driver only)
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string (postgres driver only)
	DSN string `yaml:"dsn"`
}

// ProviderConfig configures the optional hosted completion backend.
// Kind "none" (or empty) disables it and agents use built-in responses.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StreamingConfig tunes SSE content delivery
type StreamingConfig struct {
	// ChunkDelay is the pause between cumulative content frames. Zero
	// disables pacing (useful in tests).
	ChunkDelay time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ChunkDelayRaw string `yaml:"chunk_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration suitable for local development
func Default() *Config {
	return &Config{
		Server:    ServerConfig{HTTPAddr: ":8080"},
		Database:  DatabaseConfig{Driver: "sqlite", Path: "data/parlor.db"},
		Provider:  ProviderConfig{Kind: "none"},
		Streaming: StreamingConfig{ChunkDelay: 100 * time.Millisecond},
		Logging:   LoggingConfig{Level: "info", Format: "color"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.Provider.Kind {
	case "", "none":
	case "openai", "anthropic":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for provider kind %q", c.Provider.Kind)
		}
	default:
		return fmt.Errorf("provider.kind must be none, openai, or anthropic, got %q", c.Provider.Kind)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Streaming.ChunkDelayRaw != "" {
		d, err := time.ParseDuration(cfg.Streaming.ChunkDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing chunk_delay %q: %w", cfg.Streaming.ChunkDelayRaw, err)
		}
		cfg.Streaming.ChunkDelay = d
	}

	return nil
}
