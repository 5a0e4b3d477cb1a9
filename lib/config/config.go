// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "GFXCACHE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the gfxcache configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths   PathsConfig   `yaml:"paths"`
	Cache   CacheConfig   `yaml:"cache"`
	Loader  LoaderConfig  `yaml:"loader"`
	Tracker TrackerConfig `yaml:"tracker"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`

	// Per-environment overrides, applied after the base values.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace.
type Overrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Cache   *CacheConfig   `yaml:"cache,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the data cache directory. One sub-directory per asset
	// category is created beneath it.
	Root string `yaml:"root"`
}

// CacheConfig configures the file-backed data cache.
type CacheConfig struct {
	// Compression is none, lz4, zstd, bg4_lz4, or auto.
	// Default: auto
	Compression string `yaml:"compression"`

	// WakeInterval is the worker's idle poll period.
	// Default: 500ms
	WakeInterval time.Duration `yaml:"wake_interval"`

	// IOWorkers bounds concurrent file reads and writes.
	// Default: 4
	IOWorkers int `yaml:"io_workers"`

	// DecodeWorkers bounds concurrent decodes. Zero means GOMAXPROCS.
	DecodeWorkers int `yaml:"decode_workers"`
}

// LoaderConfig configures request deduplication.
type LoaderConfig struct {
	// Shards is the number of entry locks, a power of two.
	// Default: 16
	Shards int `yaml:"shards"`

	// TTL is how long a completed fetch stays deduplicated.
	// Default: 30s
	TTL time.Duration `yaml:"ttl"`
}

// TrackerConfig configures the decoded-object tracker.
type TrackerConfig struct {
	// GCBudget is the number of entries one sweep step inspects.
	// Default: 100
	GCBudget int `yaml:"gc_budget"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Textfile, when set, is where each command writes its Prometheus
	// metrics on exit, in the text format read by node_exporter's
	// textfile collector.
	Textfile string `yaml:"textfile"`
}

// LoggingConfig configures the command logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is auto, text, or json. Auto picks text on a terminal.
	// Default: auto (development), json (production)
	Format string `yaml:"format"`
}

// Default returns the configuration used before a file is applied.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root: filepath.Join(homeDir, ".cache", "gfxcache"),
		},
		Cache: CacheConfig{
			Compression:  "auto",
			WakeInterval: 500 * time.Millisecond,
			IOWorkers:    4,
		},
		Loader: LoaderConfig{
			Shards: 16,
			TTL:    30 * time.Second,
		},
		Tracker: TrackerConfig{
			GCBudget: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by GFXCACHE_CONFIG. It
// fails if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your gfxcache.yaml or use --config", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults, applies
// the matching environment section, and expands path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Logging: &LoggingConfig{Format: "json"}}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Paths != nil && overrides.Paths.Root != "" {
		c.Paths.Root = overrides.Paths.Root
	}

	if overrides.Cache != nil {
		if overrides.Cache.Compression != "" {
			c.Cache.Compression = overrides.Cache.Compression
		}
		if overrides.Cache.WakeInterval != 0 {
			c.Cache.WakeInterval = overrides.Cache.WakeInterval
		}
		if overrides.Cache.IOWorkers != 0 {
			c.Cache.IOWorkers = overrides.Cache.IOWorkers
		}
		if overrides.Cache.DecodeWorkers != 0 {
			c.Cache.DecodeWorkers = overrides.Cache.DecodeWorkers
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"GFXCACHE_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}
	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["GFXCACHE_ROOT"] = c.Paths.Root
	c.Metrics.Textfile = expandVars(c.Metrics.Textfile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	compressions := []string{"none", "lz4", "zstd", "bg4_lz4", "auto"}
	if !slices.Contains(compressions, c.Cache.Compression) {
		errs = append(errs, fmt.Errorf("cache.compression must be one of: %v", compressions))
	}
	if c.Cache.WakeInterval <= 0 {
		errs = append(errs, fmt.Errorf("cache.wake_interval must be positive"))
	}
	if c.Cache.IOWorkers <= 0 {
		errs = append(errs, fmt.Errorf("cache.io_workers must be positive"))
	}
	if c.Cache.DecodeWorkers < 0 {
		errs = append(errs, fmt.Errorf("cache.decode_workers must not be negative"))
	}

	if shards := c.Loader.Shards; shards <= 0 || shards&(shards-1) != 0 {
		errs = append(errs, fmt.Errorf("loader.shards must be a power of two, got %d", shards))
	}
	if c.Loader.TTL <= 0 {
		errs = append(errs, fmt.Errorf("loader.ttl must be positive"))
	}
	if c.Tracker.GCBudget <= 0 {
		errs = append(errs, fmt.Errorf("tracker.gc_budget must be positive"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the cache root if it does not exist.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.Paths.Root, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Paths.Root, err)
	}
	return nil
}
