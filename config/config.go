// Package config provides configuration loading and management for semtrim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semtrim/optimize"
)

// Config represents the complete semtrim configuration
type Config struct {
	// Encoding is the tiktoken encoding used for counting (e.g., "cl100k_base"),
	// or "heuristic" for the offline estimator
	Encoding string        `yaml:"encoding"`
	Listing  ListingConfig `yaml:"listing"`
	Report   ReportConfig  `yaml:"report"`
	Watch    WatchConfig   `yaml:"watch"`
	// Optimize holds the default per-category settings
	Optimize optimize.Config `yaml:"optimize"`
	// Languages overrides Optimize per language name; a category left at its
	// zero value inherits the default
	Languages map[string]optimize.Config `yaml:"languages,omitempty"`
}

// ListingConfig configures file selection and output assembly
type ListingConfig struct {
	// Include is the list of glob patterns selecting files (relative to the root)
	Include []string `yaml:"include,omitempty"`
	// Exclude is the list of glob patterns removing files from the selection
	Exclude []string `yaml:"exclude,omitempty"`
	// Workers bounds the number of files optimized concurrently
	Workers int `yaml:"workers"`
	// Format is the output format: "plain" or "markdown"
	Format string `yaml:"format"`
}

// ReportConfig configures run statistics output
type ReportConfig struct {
	// Format is the report format: "text" or "json"
	Format string `yaml:"format"`
	// NATSURL enables stats publishing when set (e.g., nats://localhost:4222)
	NATSURL string `yaml:"nats_url,omitempty"`
	// Subject is the subject prefix for published stats
	Subject string `yaml:"subject"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long a changed file must stay quiet before re-optimizing
	Debounce Duration `yaml:"debounce"`
	// MetricsAddr serves Prometheus metrics when set (e.g., :9090)
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Duration wraps time.Duration so YAML accepts human-readable values like "500ms"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Encoding: "cl100k_base",
		Listing: ListingConfig{
			Include: []string{"**/*"},
			Workers: 4,
			Format:  "plain",
		},
		Report: ReportConfig{
			Format:  "text",
			Subject: "semtrim.stats",
		},
		Watch: WatchConfig{
			Debounce: Duration(500 * time.Millisecond),
		},
		Optimize: optimize.Config{
			Literals:       optimize.CategoryConfig{MaxTokens: 120},
			Comments:       optimize.CategoryConfig{Policy: optimize.PolicyKeepDoc},
			FunctionBodies: optimize.CategoryConfig{Policy: optimize.PolicyKeepAll},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Encoding == "" {
		return fmt.Errorf("encoding is required")
	}
	if c.Listing.Workers < 1 {
		return fmt.Errorf("listing.workers must be at least 1")
	}
	if !slices.Contains([]string{"plain", "markdown"}, c.Listing.Format) {
		return fmt.Errorf("listing.format must be plain or markdown, got %q", c.Listing.Format)
	}
	if !slices.Contains([]string{"text", "json"}, c.Report.Format) {
		return fmt.Errorf("report.format must be text or json, got %q", c.Report.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if err := c.Optimize.Validate(); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	for name, override := range c.Languages {
		if err := override.Validate(); err != nil {
			return fmt.Errorf("languages[%s]: %w", name, err)
		}
	}
	return nil
}

// ForLanguage returns the optimize configuration effective for one language:
// the default with any per-language category overrides applied
func (c *Config) ForLanguage(name string) optimize.Config {
	effective := c.Optimize
	override, ok := c.Languages[name]
	if !ok {
		return effective
	}
	if categorySet(override.Literals) {
		effective.Literals = override.Literals
	}
	if categorySet(override.Comments) {
		effective.Comments = override.Comments
	}
	if categorySet(override.FunctionBodies) {
		effective.FunctionBodies = override.FunctionBodies
	}
	return effective
}

// categorySet reports whether any knob of the category is set
func categorySet(cc optimize.CategoryConfig) bool {
	return cc.Policy != "" || cc.MaxTokens != 0 || cc.MinElements != 0 ||
		len(cc.ExceptPatterns) > 0 || len(cc.KeepAnnotated) > 0 || len(cc.StripPatterns) > 0
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
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

// Merge merges another config into this one (other takes precedence for set values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Encoding != "" {
		c.Encoding = other.Encoding
	}

	// Listing
	if len(other.Listing.Include) > 0 {
		c.Listing.Include = other.Listing.Include
	}
	if len(other.Listing.Exclude) > 0 {
		c.Listing.Exclude = other.Listing.Exclude
	}
	if other.Listing.Workers != 0 {
		c.Listing.Workers = other.Listing.Workers
	}
	if other.Listing.Format != "" {
		c.Listing.Format = other.Listing.Format
	}

	// Report
	if other.Report.Format != "" {
		c.Report.Format = other.Report.Format
	}
	if other.Report.NATSURL != "" {
		c.Report.NATSURL = other.Report.NATSURL
	}
	if other.Report.Subject != "" {
		c.Report.Subject = other.Report.Subject
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.MetricsAddr != "" {
		c.Watch.MetricsAddr = other.Watch.MetricsAddr
	}

	// Optimize
	if categorySet(other.Optimize.Literals) {
		c.Optimize.Literals = other.Optimize.Literals
	}
	if categorySet(other.Optimize.Comments) {
		c.Optimize.Comments = other.Optimize.Comments
	}
	if categorySet(other.Optimize.FunctionBodies) {
		c.Optimize.FunctionBodies = other.Optimize.FunctionBodies
	}

	// Languages
	for name, override := range other.Languages {
		if c.Languages == nil {
			c.Languages = make(map[string]optimize.Config)
		}
		c.Languages[name] = override
	}
}
