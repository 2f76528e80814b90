// Package config provides configuration management for the sqlscope CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlscope/internal/engine"
)

// SampleConfig caps the rows read per table for each analysis family.
type SampleConfig struct {
	Normalization int `koanf:"normalization"`
	Insights      int `koanf:"insights"`
}

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	Port          int           `koanf:"port"`
	SessionSecret string        `koanf:"session_secret"`
	SecureCookie  bool          `koanf:"secure_cookie"`
	RateLimit     float64       `koanf:"rate_limit"`
	Burst         int           `koanf:"burst"`
	SessionIdle   time.Duration `koanf:"session_idle"`
}

// LintConfig enables, disables and re-ranks analysis rules.
type LintConfig struct {
	Disabled []string          `koanf:"disabled"`
	Severity map[string]string `koanf:"severity"`
}

// Config holds all CLI configuration options.
type Config struct {
	Adapter      string            `koanf:"adapter"`
	Database     string            `koanf:"database"`
	StatePath    string            `koanf:"state_path"`
	Verbose      bool              `koanf:"verbose"`
	OutputFormat string            `koanf:"output"`
	StrictTables bool              `koanf:"strict_tables"`
	Options      map[string]string `koanf:"options"`
	Params       map[string]any    `koanf:"params"`
	Sample       SampleConfig      `koanf:"sample"`
	Server       ServerConfig      `koanf:"server"`
	Lint         LintConfig        `koanf:"lint"`
}

// Default configuration values.
const (
	DefaultAdapter     = "sqlite"
	DefaultStateFile   = ".sqlscope/history.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=json
	DefaultPort        = 8080
	DefaultBurst       = 20
	DefaultSessionIdle = 30 * time.Minute
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Adapter:      DefaultAdapter,
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		StrictTables: true,
		Sample: SampleConfig{
			Normalization: engine.DefaultNormalizationSample,
			Insights:      engine.DefaultInsightsSample,
		},
		Server: ServerConfig{
			Port:        DefaultPort,
			Burst:       DefaultBurst,
			SessionIdle: DefaultSessionIdle,
		},
	}
}
