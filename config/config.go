// Package config provides configuration loading and management for CodeGuardian.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/codeguardian/source"
)

// Config represents the complete CodeGuardian configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" toml:"analysis"`
	Rules    RulesConfig    `yaml:"rules" toml:"rules"`
	Ingest   IngestConfig   `yaml:"ingest" toml:"ingest"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// AnalysisConfig configures the engine
type AnalysisConfig struct {
	// DefaultLanguage applies when none is given and a file extension is unknown
	DefaultLanguage string `yaml:"default_language" toml:"default_language"`
	// Parallel evaluates rules concurrently
	Parallel bool `yaml:"parallel" toml:"parallel"`
	// DisabledRules lists rule or heuristic IDs to drop
	DisabledRules []string `yaml:"disabled_rules,omitempty" toml:"disabled_rules"`
	// EnabledOnly restricts the catalog to these IDs (empty = all)
	EnabledOnly []string `yaml:"enabled_only,omitempty" toml:"enabled_only"`
}

// RulesConfig tunes rule thresholds
type RulesConfig struct {
	MaxLineLength    int `yaml:"max_line_length" toml:"max_line_length"`
	MaxFunctionLines int `yaml:"max_function_lines" toml:"max_function_lines"`
}

// IngestConfig configures directory scans and watching
type IngestConfig struct {
	// Include is the list of doublestar patterns to analyze (empty = all source files)
	Include []string `yaml:"include,omitempty" toml:"include"`
	// Exclude is the list of doublestar patterns to skip (empty = dependency and build dirs)
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude"`
	// MaxFileBytes skips larger files during directory scans (0 = no limit)
	MaxFileBytes int64 `yaml:"max_file_bytes" toml:"max_file_bytes"`
	// WatchDebounce is how long the watcher waits for more changes
	WatchDebounce time.Duration `yaml:"watch_debounce" toml:"watch_debounce"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" toml:"level"`
}

// MetricsConfig configures the Prometheus endpoint served by watch
type MetricsConfig struct {
	// Listen is the address for /metrics (empty = disabled)
	Listen string `yaml:"listen" toml:"listen"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DefaultLanguage: string(source.DefaultLanguage),
		},
		Rules: RulesConfig{
			MaxLineLength:    120,
			MaxFunctionLines: 50,
		},
		Ingest: IngestConfig{
			MaxFileBytes:  1 << 20,
			WatchDebounce: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Analysis.DefaultLanguage) == "" {
		return fmt.Errorf("analysis.default_language is required")
	}
	if _, ok := source.LookupLanguage(c.Analysis.DefaultLanguage); !ok {
		return fmt.Errorf("analysis.default_language %q is not a known language", c.Analysis.DefaultLanguage)
	}
	if c.Rules.MaxLineLength < 0 {
		return fmt.Errorf("rules.max_line_length must not be negative")
	}
	if c.Rules.MaxFunctionLines < 0 {
		return fmt.Errorf("rules.max_function_lines must not be negative")
	}
	if c.Ingest.MaxFileBytes < 0 {
		return fmt.Errorf("ingest.max_file_bytes must not be negative")
	}
	for _, p := range append(append([]string{}, c.Ingest.Include...), c.Ingest.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("ingest pattern %q is invalid", p)
		}
	}
	validLevel := false
	for _, l := range logLevels {
		if strings.EqualFold(c.Log.Level, l) {
			validLevel = true
		}
	}
	if !validLevel {
		return fmt.Errorf("log.level must be one of %s", strings.Join(logLevels, ", "))
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, or a TOML file when
// the path ends in .toml
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return config, nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Analysis
	if other.Analysis.DefaultLanguage != "" {
		c.Analysis.DefaultLanguage = other.Analysis.DefaultLanguage
	}
	if other.Analysis.Parallel {
		c.Analysis.Parallel = true
	}
	if len(other.Analysis.DisabledRules) > 0 {
		c.Analysis.DisabledRules = other.Analysis.DisabledRules
	}
	if len(other.Analysis.EnabledOnly) > 0 {
		c.Analysis.EnabledOnly = other.Analysis.EnabledOnly
	}

	// Rules
	if other.Rules.MaxLineLength != 0 {
		c.Rules.MaxLineLength = other.Rules.MaxLineLength
	}
	if other.Rules.MaxFunctionLines != 0 {
		c.Rules.MaxFunctionLines = other.Rules.MaxFunctionLines
	}

	// Ingest
	if len(other.Ingest.Include) > 0 {
		c.Ingest.Include = other.Ingest.Include
	}
	if len(other.Ingest.Exclude) > 0 {
		c.Ingest.Exclude = other.Ingest.Exclude
	}
	if other.Ingest.MaxFileBytes != 0 {
		c.Ingest.MaxFileBytes = other.Ingest.MaxFileBytes
	}
	if other.Ingest.WatchDebounce != 0 {
		c.Ingest.WatchDebounce = other.Ingest.WatchDebounce
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	// Metrics
	if other.Metrics.Listen != "" {
		c.Metrics.Listen = other.Metrics.Listen
	}
}
