package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analysis.DefaultLanguage != "python" {
		t.Errorf("expected default language python, got %s", cfg.Analysis.DefaultLanguage)
	}
	if cfg.Rules.MaxLineLength != 120 {
		t.Errorf("expected max line length 120, got %d", cfg.Rules.MaxLineLength)
	}
	if cfg.Rules.MaxFunctionLines != 50 {
		t.Errorf("expected max function lines 50, got %d", cfg.Rules.MaxFunctionLines)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Log.Level)
	}
	if cfg.Analysis.Parallel {
		t.Error("expected sequential evaluation by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "language alias",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "Golang" },
			wantErr: false,
		},
		{
			name:    "other language",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "other" },
			wantErr: false,
		},
		{
			name:    "text alias",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "text" },
			wantErr: false,
		},
		{
			name:    "txt alias",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "TXT" },
			wantErr: false,
		},
		{
			name:    "missing default language",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "" },
			wantErr: true,
		},
		{
			name:    "unknown default language",
			modify:  func(c *Config) { c.Analysis.DefaultLanguage = "cobol" },
			wantErr: true,
		},
		{
			name:    "negative line length",
			modify:  func(c *Config) { c.Rules.MaxLineLength = -1 },
			wantErr: true,
		},
		{
			name:    "negative function lines",
			modify:  func(c *Config) { c.Rules.MaxFunctionLines = -1 },
			wantErr: true,
		},
		{
			name:    "negative file size",
			modify:  func(c *Config) { c.Ingest.MaxFileBytes = -1 },
			wantErr: true,
		},
		{
			name:    "invalid include pattern",
			modify:  func(c *Config) { c.Ingest.Include = []string{"src/[a-"} },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "log level is case insensitive",
			modify:  func(c *Config) { c.Log.Level = "DEBUG" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
analysis:
  default_language: go
  parallel: true
  disabled_rules: [line-too-long]
rules:
  max_line_length: 100
ingest:
  exclude: ["**/testdata/**"]
  watch_debounce: 500ms
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Analysis.DefaultLanguage != "go" {
		t.Errorf("expected language go, got %s", cfg.Analysis.DefaultLanguage)
	}
	if !cfg.Analysis.Parallel {
		t.Error("expected parallel evaluation")
	}
	if len(cfg.Analysis.DisabledRules) != 1 || cfg.Analysis.DisabledRules[0] != "line-too-long" {
		t.Errorf("unexpected disabled rules %v", cfg.Analysis.DisabledRules)
	}
	if cfg.Rules.MaxLineLength != 100 {
		t.Errorf("expected max line length 100, got %d", cfg.Rules.MaxLineLength)
	}
	// Unset values keep their defaults
	if cfg.Rules.MaxFunctionLines != 50 {
		t.Errorf("expected max function lines 50, got %d", cfg.Rules.MaxFunctionLines)
	}
	if cfg.Ingest.WatchDebounce != 500*time.Millisecond {
		t.Errorf("expected debounce 500ms, got %v", cfg.Ingest.WatchDebounce)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadFromTOMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "codeguardian.toml")

	content := `
[analysis]
default_language = "javascript"
enabled_only = ["js-eval", "todo-marker"]

[rules]
max_function_lines = 80

[metrics]
listen = ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Analysis.DefaultLanguage != "javascript" {
		t.Errorf("expected language javascript, got %s", cfg.Analysis.DefaultLanguage)
	}
	if len(cfg.Analysis.EnabledOnly) != 2 {
		t.Errorf("expected 2 enabled rules, got %v", cfg.Analysis.EnabledOnly)
	}
	if cfg.Rules.MaxFunctionLines != 80 {
		t.Errorf("expected max function lines 80, got %d", cfg.Rules.MaxFunctionLines)
	}
	if cfg.Rules.MaxLineLength != 120 {
		t.Errorf("expected max line length 120, got %d", cfg.Rules.MaxLineLength)
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Errorf("expected metrics listen :9090, got %s", cfg.Metrics.Listen)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("analysis: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Analysis: AnalysisConfig{
			DefaultLanguage: "java",
			DisabledRules:   []string{"todo-marker"},
		},
		Rules: RulesConfig{
			MaxLineLength: 80,
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9100",
		},
	}

	base.Merge(override)

	if base.Analysis.DefaultLanguage != "java" {
		t.Errorf("expected language java after merge, got %s", base.Analysis.DefaultLanguage)
	}
	if base.Rules.MaxLineLength != 80 {
		t.Errorf("expected max line length 80 after merge, got %d", base.Rules.MaxLineLength)
	}
	// Zero values must not clobber the base
	if base.Rules.MaxFunctionLines != 50 {
		t.Errorf("expected max function lines to remain 50, got %d", base.Rules.MaxFunctionLines)
	}
	if base.Log.Level != "info" {
		t.Errorf("expected log level to remain info, got %s", base.Log.Level)
	}
	if base.Metrics.Listen != "127.0.0.1:9100" {
		t.Errorf("expected metrics listen after merge, got %s", base.Metrics.Listen)
	}

	base.Merge(nil)
	if base.Analysis.DefaultLanguage != "java" {
		t.Error("merging nil should be a no-op")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Analysis.DefaultLanguage = "typescript"
	cfg.Ingest.Exclude = []string{"**/generated/**"}

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Analysis.DefaultLanguage != "typescript" {
		t.Errorf("expected language typescript, got %s", loaded.Analysis.DefaultLanguage)
	}
	if len(loaded.Ingest.Exclude) != 1 || loaded.Ingest.Exclude[0] != "**/generated/**" {
		t.Errorf("unexpected exclude %v", loaded.Ingest.Exclude)
	}
}
