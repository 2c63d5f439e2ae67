package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protomerge/pkg/merge"
	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/protoload"
	"github.com/platinummonkey/protomerge/pkg/schema"
)

// Config holds the configuration of one merge run
type Config struct {
	// Versions are listed oldest first
	Versions []VersionSource `yaml:"versions"`

	FieldMappings   []schema.FieldMapping `yaml:"field_mappings"`
	ExcludeMessages []string              `yaml:"exclude_messages"`
	ExcludeFields   []string              `yaml:"exclude_fields"`
	ImportPaths     []string              `yaml:"import_paths"`

	Workers int `yaml:"workers"`

	// Observability configuration
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// VersionSource names a schema version and the directory holding its .proto files
type VersionSource struct {
	ID  string `yaml:"id"`
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a configuration with defaults and no versions
func DefaultConfig() *Config {
	return &Config{
		Workers:        merge.DefaultOptions().Workers,
		LogLevel:       "info",
		LogFormat:      string(observability.FormatText),
		MetricsEnabled: false,
	}
}

// LoadConfig loads the file named by PROTOMERGE_CONFIG, if set, then applies
// environment overrides and validates the result
func LoadConfig() (*Config, error) {
	if path := getEnv("PROTOMERGE_CONFIG", ""); path != "" {
		return LoadFile(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file on top of the defaults, then applies
// environment overrides. Relative version directories resolve against the file's directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadMappings reads a YAML list of field mappings
func LoadMappings(path string) ([]schema.FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var mappings []schema.FieldMapping
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	return mappings, nil
}

func (c *Config) resolvePaths(base string) {
	for i := range c.Versions {
		if c.Versions[i].Dir != "" && !filepath.IsAbs(c.Versions[i].Dir) {
			c.Versions[i].Dir = filepath.Join(base, c.Versions[i].Dir)
		}
	}
	for i, p := range c.ImportPaths {
		if !filepath.IsAbs(p) {
			c.ImportPaths[i] = filepath.Join(base, p)
		}
	}
}

// applyEnv overrides file values with PROTOMERGE_* environment variables
func (c *Config) applyEnv() {
	c.LogLevel = getEnv("PROTOMERGE_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("PROTOMERGE_LOG_FORMAT", c.LogFormat)
	c.Workers = getEnvInt("PROTOMERGE_WORKERS", c.Workers)
	c.MetricsEnabled = getEnvBool("PROTOMERGE_METRICS_ENABLED", c.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := observability.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch observability.LogFormat(strings.ToLower(c.LogFormat)) {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.LogFormat)
	}

	seen := make(map[string]bool, len(c.Versions))
	for i, v := range c.Versions {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("version %d: id is required", i)
		}
		if v.Dir == "" {
			return fmt.Errorf("version %s: dir is required", v.ID)
		}
		if seen[v.ID] {
			return fmt.Errorf("version %s is listed twice", v.ID)
		}
		seen[v.ID] = true
	}

	for _, m := range c.FieldMappings {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the parsed log level; Validate guarantees it parses
func (c *Config) Level() observability.LogLevel {
	level, _ := observability.ParseLogLevel(c.LogLevel)
	return level
}

// Format returns the log format
func (c *Config) Format() observability.LogFormat {
	return observability.LogFormat(strings.ToLower(c.LogFormat))
}

// MergeOptions converts the configuration into merger options
func (c *Config) MergeOptions() merge.Options {
	return merge.Options{
		Mappings:        c.FieldMappings,
		Workers:         c.Workers,
		ExcludeMessages: c.ExcludeMessages,
		ExcludeFields:   c.ExcludeFields,
	}
}

// Sources converts the version list for the loader
func (c *Config) Sources() []protoload.Source {
	sources := make([]protoload.Source, len(c.Versions))
	for i, v := range c.Versions {
		sources[i] = protoload.Source{Version: v.ID, Dir: v.Dir}
	}
	return sources
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
