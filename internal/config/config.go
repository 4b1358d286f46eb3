// Package config holds the engine's typed configuration: stats-journal
// tuning, default recovery/graph ceilings, sanitizer limits, and the
// tracing/logging/metrics toggles. It supports three-layer priority ---
// defaults, then environment variables, then functional options --- the
// same layering the teacher's own core.Config uses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TracingExporter selects how spans are exported.
type TracingExporter string

const (
	TracingExporterNone   TracingExporter = "none"
	TracingExporterStdout TracingExporter = "stdout"
	TracingExporterOTLP   TracingExporter = "otlp"
)

// Config is the engine's process-wide tunable configuration.
type Config struct {
	// Stats journal
	StatsJournalPath  string `yaml:"stats_journal_path" env:"BLOCKENGINE_STATS_JOURNAL_PATH" default:""`
	StatsMaxRecords   int    `yaml:"stats_max_records" env:"BLOCKENGINE_STATS_MAX_RECORDS" default:"5000"`
	StatsMaxFileBytes int64  `yaml:"stats_max_file_bytes" env:"BLOCKENGINE_STATS_MAX_FILE_BYTES" default:"5242880"`

	// Graph / recovery defaults
	DefaultMaxSteps         int           `yaml:"default_max_steps" env:"BLOCKENGINE_DEFAULT_MAX_STEPS" default:"128"`
	DefaultRetryMaxAttempts int           `yaml:"default_retry_max_attempts" env:"BLOCKENGINE_DEFAULT_RETRY_MAX_ATTEMPTS" default:"3"`
	DefaultRetryDelay       time.Duration `yaml:"default_retry_delay" env:"BLOCKENGINE_DEFAULT_RETRY_DELAY" default:"0s"`

	// Sanitizer limits
	SanitizerMaxStringLen      int `yaml:"sanitizer_max_string_len" env:"BLOCKENGINE_SANITIZER_MAX_STRING_LEN" default:"256"`
	SanitizerMaxCollectionSize int `yaml:"sanitizer_max_collection_size" env:"BLOCKENGINE_SANITIZER_MAX_COLLECTION_SIZE" default:"25"`
	SanitizerMaxDepth          int `yaml:"sanitizer_max_depth" env:"BLOCKENGINE_SANITIZER_MAX_DEPTH" default:"3"`

	// Observability
	TracingEnabled    bool            `yaml:"tracing_enabled" env:"BLOCKENGINE_TRACING_ENABLED" default:"false"`
	TracingExporter   TracingExporter `yaml:"tracing_exporter" env:"BLOCKENGINE_TRACING_EXPORTER" default:"none"`
	PrometheusEnabled bool            `yaml:"prometheus_enabled" env:"BLOCKENGINE_PROMETHEUS_ENABLED" default:"false"`
	LogLevel          string          `yaml:"log_level" env:"BLOCKENGINE_LOG_LEVEL" default:"info"`
	LogFormat         string          `yaml:"log_format" env:"BLOCKENGINE_LOG_FORMAT" default:"json"`
}

// Option mutates a Config being built by New.
type Option func(*Config) error

// DefaultConfig returns a Config populated with the struct tag defaults.
func DefaultConfig() *Config {
	return &Config{
		StatsMaxRecords:            5000,
		StatsMaxFileBytes:          5 * 1024 * 1024,
		DefaultMaxSteps:            128,
		DefaultRetryMaxAttempts:    3,
		DefaultRetryDelay:          0,
		SanitizerMaxStringLen:      256,
		SanitizerMaxCollectionSize: 25,
		SanitizerMaxDepth:          3,
		TracingEnabled:             false,
		TracingExporter:            TracingExporterNone,
		PrometheusEnabled:          false,
		LogLevel:                   "info",
		LogFormat:                  "json",
	}
}

// LoadFromEnv overlays environment variables onto the config, following the
// BLOCKENGINE_* naming convention. Malformed values are ignored, leaving the
// previous value in place --- consistent with the teacher's own
// LoadFromEnv, which never fails the whole load over one bad var.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("BLOCKENGINE_STATS_JOURNAL_PATH"); v != "" {
		c.StatsJournalPath = v
	}
	if v := os.Getenv("BLOCKENGINE_STATS_MAX_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StatsMaxRecords = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_STATS_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.StatsMaxFileBytes = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_DEFAULT_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultMaxSteps = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_DEFAULT_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultRetryMaxAttempts = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_DEFAULT_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DefaultRetryDelay = d
		}
	}
	if v := os.Getenv("BLOCKENGINE_SANITIZER_MAX_STRING_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SanitizerMaxStringLen = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_SANITIZER_MAX_COLLECTION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SanitizerMaxCollectionSize = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_SANITIZER_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SanitizerMaxDepth = n
		}
	}
	if v := os.Getenv("BLOCKENGINE_TRACING_ENABLED"); v != "" {
		c.TracingEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("BLOCKENGINE_TRACING_EXPORTER"); v != "" {
		c.TracingExporter = TracingExporter(v)
	}
	if v := os.Getenv("BLOCKENGINE_PROMETHEUS_ENABLED"); v != "" {
		c.PrometheusEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("BLOCKENGINE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("BLOCKENGINE_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// FromYAML loads a Config from a YAML file, starting from DefaultConfig so
// any field the file omits keeps its default.
func FromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds a Config: defaults, then environment variables, then functional
// options, in that priority order (later layers win).
func New(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot be reconciled into a working
// engine (negative ceilings, unknown exporters).
func (c *Config) Validate() error {
	if c.DefaultMaxSteps <= 0 {
		return fmt.Errorf("config: default_max_steps must be positive, got %d", c.DefaultMaxSteps)
	}
	if c.DefaultRetryMaxAttempts <= 0 {
		return fmt.Errorf("config: default_retry_max_attempts must be positive, got %d", c.DefaultRetryMaxAttempts)
	}
	if c.StatsMaxRecords < 0 {
		return fmt.Errorf("config: stats_max_records must be >= 0, got %d", c.StatsMaxRecords)
	}
	if c.StatsMaxFileBytes < 0 {
		return fmt.Errorf("config: stats_max_file_bytes must be >= 0, got %d", c.StatsMaxFileBytes)
	}
	switch c.TracingExporter {
	case TracingExporterNone, TracingExporterStdout, TracingExporterOTLP, "":
	default:
		return fmt.Errorf("config: unknown tracing_exporter %q", c.TracingExporter)
	}
	return nil
}

// WithStatsJournalPath sets the JSONL journal path (enables the file-backed
// stats store instead of the pure in-memory one).
func WithStatsJournalPath(path string) Option {
	return func(c *Config) error {
		c.StatsJournalPath = path
		return nil
	}
}

// WithStatsRetention sets the journal retention ceilings. Zero disables the
// corresponding ceiling (see SPEC_FULL.md §9(c)).
func WithStatsRetention(maxRecords int, maxFileBytes int64) Option {
	return func(c *Config) error {
		c.StatsMaxRecords = maxRecords
		c.StatsMaxFileBytes = maxFileBytes
		return nil
	}
}

// WithDefaultMaxSteps overrides the graph interpreter's default step ceiling.
func WithDefaultMaxSteps(n int) Option {
	return func(c *Config) error {
		c.DefaultMaxSteps = n
		return nil
	}
}

// WithTracing enables span export via the given exporter.
func WithTracing(exporter TracingExporter) Option {
	return func(c *Config) error {
		c.TracingEnabled = exporter != TracingExporterNone
		c.TracingExporter = exporter
		return nil
	}
}

// WithPrometheus toggles the Prometheus stats mirror.
func WithPrometheus(enabled bool) Option {
	return func(c *Config) error {
		c.PrometheusEnabled = enabled
		return nil
	}
}

// WithLogging sets the log level ("debug"|"info"|"warn"|"error") and format
// ("json"|"text").
func WithLogging(level, format string) Option {
	return func(c *Config) error {
		c.LogLevel = level
		c.LogFormat = format
		return nil
	}
}
