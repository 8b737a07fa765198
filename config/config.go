// Package config loads querykit settings from YAML.
//
// Values are layered: Default, then the file, then QUERYKIT_* environment
// variables. Command line flags are applied by the caller. Watch reloads a
// file as it is edited; "querykit config --watch" is built on it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/filter"
)

// Config is the root configuration.
type Config struct {
	Dialect    string            `yaml:"dialect"`
	DSN        string            `yaml:"dsn"`
	Log        Log               `yaml:"log"`
	Pagination Pagination        `yaml:"pagination"`
	Stats      Stats             `yaml:"stats"`
	Filters    map[string]Filter `yaml:"filters"`
}

// Log configures the logger built by NewLogger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Pagination bounds the page sizes requested by clients.
type Pagination struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Stats configures query statistics.
type Stats struct {
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// Filter declares a filter definition.
type Filter struct {
	DefaultOperator string                  `yaml:"default_operator"`
	Fields          map[string]filter.Field `yaml:"fields"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDialect   = "QUERYKIT_DIALECT"
	EnvDSN       = "QUERYKIT_DSN"
	EnvLogLevel  = "QUERYKIT_LOG_LEVEL"
	EnvLogFormat = "QUERYKIT_LOG_FORMAT"
	EnvMaxLimit  = "QUERYKIT_MAX_LIMIT"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Dialect: dialect.SQLite,
		DSN:     "file::memory:",
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Pagination: Pagination{
			DefaultLimit: 20,
			MaxLimit:     100,
		},
		Stats: Stats{
			SlowThreshold: 100 * time.Millisecond,
		},
	}
}

// Load reads the file at path over the defaults, applies the environment
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, applies the environment and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration with the QUERYKIT_* variables that
// are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvDialect); ok {
		c.Dialect = v
	}
	if v, ok := os.LookupEnv(EnvDSN); ok {
		c.DSN = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvMaxLimit); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxLimit, err)
		}
		c.Pagination.MaxLimit = n
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.DialectName() {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported dialect %q", c.Dialect))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}
	if c.Pagination.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("pagination default_limit must be positive, got %d", c.Pagination.DefaultLimit))
	}
	if c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		errs = append(errs, fmt.Errorf("pagination max_limit %d is below default_limit %d", c.Pagination.MaxLimit, c.Pagination.DefaultLimit))
	}
	if c.Stats.SlowThreshold < 0 {
		errs = append(errs, fmt.Errorf("stats slow_threshold must not be negative"))
	}
	operators := filter.Operators()
	for _, name := range slices.Sorted(maps.Keys(c.Filters)) {
		f := c.Filters[name]
		if f.DefaultOperator != "" && !slices.Contains(operators, f.DefaultOperator) {
			errs = append(errs, fmt.Errorf("filter %q: unknown default_operator %q", name, f.DefaultOperator))
		}
		for _, field := range slices.Sorted(maps.Keys(f.Fields)) {
			for _, op := range f.Fields[field].Operators {
				if !slices.Contains(operators, op) {
					errs = append(errs, fmt.Errorf("filter %q: field %q: unknown operator %q", name, field, op))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// DialectName returns the dialect constant for the configured dialect.
func (c *Config) DialectName() string {
	if c.Dialect == "sqlite" {
		return dialect.SQLite
	}
	return c.Dialect
}

// DriverName returns the database/sql driver name for the dialect.
func (c *Config) DriverName() string {
	if c.DialectName() == dialect.SQLite {
		return "sqlite"
	}
	return c.Dialect
}

// ClampLimit returns the page size to use for a requested limit: the
// default when n is not positive, at most the maximum.
func (c *Config) ClampLimit(n int) int {
	if n <= 0 {
		return c.Pagination.DefaultLimit
	}
	return min(n, c.Pagination.MaxLimit)
}

// Definitions returns the declared filters as definitions keyed by name.
func (c *Config) Definitions() map[string]*filter.Definition {
	defs := make(map[string]*filter.Definition, len(c.Filters))
	for name, f := range c.Filters {
		fields := maps.Clone(f.Fields)
		defs[name] = &filter.Definition{
			Name:            name,
			DefaultOperator: f.DefaultOperator,
			Fields: func() map[string]filter.Field {
				return fields
			},
		}
	}
	return defs
}
