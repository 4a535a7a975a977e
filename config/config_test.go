package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/semtrim/optimize"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Encoding != "cl100k_base" {
		t.Errorf("expected default encoding cl100k_base, got %s", cfg.Encoding)
	}
	if cfg.Listing.Workers != 4 {
		t.Errorf("expected 4 listing workers, got %d", cfg.Listing.Workers)
	}
	if cfg.Listing.Format != "plain" {
		t.Errorf("expected plain listing format, got %s", cfg.Listing.Format)
	}
	if cfg.Report.Subject != "semtrim.stats" {
		t.Errorf("expected report subject semtrim.stats, got %s", cfg.Report.Subject)
	}
	if cfg.Watch.Debounce.Duration() != 500*time.Millisecond {
		t.Errorf("expected 500ms watch debounce, got %v", cfg.Watch.Debounce.Duration())
	}
	if cfg.Optimize.Literals.MaxTokens != 120 {
		t.Errorf("expected literals budget 120, got %d", cfg.Optimize.Literals.MaxTokens)
	}
	if cfg.Optimize.Comments.Policy != optimize.PolicyKeepDoc {
		t.Errorf("expected keep_doc comment policy, got %s", cfg.Optimize.Comments.Policy)
	}
	if cfg.Optimize.FunctionBodies.Policy != optimize.PolicyKeepAll {
		t.Errorf("expected keep_all body policy, got %s", cfg.Optimize.FunctionBodies.Policy)
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
			name:    "missing encoding",
			modify:  func(c *Config) { c.Encoding = "" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Listing.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "unknown listing format",
			modify:  func(c *Config) { c.Listing.Format = "html" },
			wantErr: true,
		},
		{
			name:    "unknown report format",
			modify:  func(c *Config) { c.Report.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = Duration(-time.Second) },
			wantErr: true,
		},
		{
			name:    "unknown comment policy",
			modify:  func(c *Config) { c.Optimize.Comments.Policy = "shout" },
			wantErr: true,
		},
		{
			name: "invalid language override",
			modify: func(c *Config) {
				c.Languages = map[string]optimize.Config{
					"python": {FunctionBodies: optimize.CategoryConfig{Policy: "discard"}},
				}
			},
			wantErr: true,
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
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
encoding: "o200k_base"
listing:
  include:
    - "**/*.go"
  exclude:
    - "**/*_test.go"
  workers: 8
  format: markdown
report:
  format: json
  nats_url: "nats://test:4222"
watch:
  debounce: 2s
optimize:
  literals:
    max_tokens: 60
  comments:
    policy: keep_first_sentence
languages:
  python:
    function_bodies:
      policy: strip_all
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Encoding != "o200k_base" {
		t.Errorf("expected encoding o200k_base, got %s", cfg.Encoding)
	}
	if len(cfg.Listing.Include) != 1 || cfg.Listing.Include[0] != "**/*.go" {
		t.Errorf("expected include [**/*.go], got %v", cfg.Listing.Include)
	}
	if len(cfg.Listing.Exclude) != 1 || cfg.Listing.Exclude[0] != "**/*_test.go" {
		t.Errorf("expected exclude [**/*_test.go], got %v", cfg.Listing.Exclude)
	}
	if cfg.Listing.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Listing.Workers)
	}
	if cfg.Listing.Format != "markdown" {
		t.Errorf("expected markdown format, got %s", cfg.Listing.Format)
	}
	if cfg.Report.Format != "json" {
		t.Errorf("expected json report format, got %s", cfg.Report.Format)
	}
	if cfg.Report.NATSURL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.Report.NATSURL)
	}
	// Subject was not in the file, so the default survives
	if cfg.Report.Subject != "semtrim.stats" {
		t.Errorf("expected default subject to remain, got %s", cfg.Report.Subject)
	}
	if cfg.Watch.Debounce.Duration() != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", cfg.Watch.Debounce.Duration())
	}
	if cfg.Optimize.Literals.MaxTokens != 60 {
		t.Errorf("expected literals budget 60, got %d", cfg.Optimize.Literals.MaxTokens)
	}
	if cfg.Optimize.Comments.Policy != optimize.PolicyKeepFirstSentence {
		t.Errorf("expected keep_first_sentence policy, got %s", cfg.Optimize.Comments.Policy)
	}
	// Body policy was not in the file, so the default survives
	if cfg.Optimize.FunctionBodies.Policy != optimize.PolicyKeepAll {
		t.Errorf("expected default body policy to remain, got %s", cfg.Optimize.FunctionBodies.Policy)
	}
	if cfg.Languages["python"].FunctionBodies.Policy != optimize.PolicyStripAll {
		t.Errorf("expected python body override strip_all, got %s", cfg.Languages["python"].FunctionBodies.Policy)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Encoding: "heuristic",
		Listing: ListingConfig{
			Include: []string{"src/**/*.py"},
		},
		Optimize: optimize.Config{
			FunctionBodies: optimize.CategoryConfig{Policy: optimize.PolicyKeepPublic},
		},
		Languages: map[string]optimize.Config{
			"java": {Comments: optimize.CategoryConfig{Policy: optimize.PolicyStripAll}},
		},
	}

	base.Merge(override)

	if base.Encoding != "heuristic" {
		t.Errorf("expected encoding heuristic, got %s", base.Encoding)
	}
	if len(base.Listing.Include) != 1 || base.Listing.Include[0] != "src/**/*.py" {
		t.Errorf("expected include override, got %v", base.Listing.Include)
	}
	// Workers should remain from base since override didn't set it
	if base.Listing.Workers != 4 {
		t.Errorf("expected workers to remain default, got %d", base.Listing.Workers)
	}
	if base.Optimize.FunctionBodies.Policy != optimize.PolicyKeepPublic {
		t.Errorf("expected body policy keep_public, got %s", base.Optimize.FunctionBodies.Policy)
	}
	// Comments category was zero in the override, so the base value stays
	if base.Optimize.Comments.Policy != optimize.PolicyKeepDoc {
		t.Errorf("expected comment policy to remain keep_doc, got %s", base.Optimize.Comments.Policy)
	}
	if base.Languages["java"].Comments.Policy != optimize.PolicyStripAll {
		t.Errorf("expected java comment override, got %s", base.Languages["java"].Comments.Policy)
	}
}

func TestConfigForLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages = map[string]optimize.Config{
		"python": {
			FunctionBodies: optimize.CategoryConfig{Policy: optimize.PolicyStripAll},
		},
	}

	py := cfg.ForLanguage("python")
	if py.FunctionBodies.Policy != optimize.PolicyStripAll {
		t.Errorf("expected strip_all body policy for python, got %s", py.FunctionBodies.Policy)
	}
	// Categories without an override inherit the defaults
	if py.Comments.Policy != optimize.PolicyKeepDoc {
		t.Errorf("expected inherited keep_doc policy, got %s", py.Comments.Policy)
	}
	if py.Literals.MaxTokens != 120 {
		t.Errorf("expected inherited literals budget, got %d", py.Literals.MaxTokens)
	}

	other := cfg.ForLanguage("go")
	if other.FunctionBodies.Policy != optimize.PolicyKeepAll {
		t.Errorf("expected default body policy for go, got %s", other.FunctionBodies.Policy)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Encoding = "o200k_base"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Encoding != "o200k_base" {
		t.Errorf("expected encoding o200k_base, got %s", loaded.Encoding)
	}
}
