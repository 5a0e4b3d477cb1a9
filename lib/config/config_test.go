// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "gfxcache.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Cache.Compression != "auto" {
		t.Errorf("expected compression=auto, got %s", cfg.Cache.Compression)
	}
	if cfg.Loader.Shards != 16 || cfg.Loader.TTL != 30*time.Second {
		t.Errorf("expected loader 16 shards / 30s, got %d / %s", cfg.Loader.Shards, cfg.Loader.TTL)
	}
	if cfg.Tracker.GCBudget != 100 {
		t.Errorf("expected gc_budget=100, got %d", cfg.Tracker.GCBudget)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when GFXCACHE_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "GFXCACHE_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	t.Setenv(EnvVar, writeConfig(t, `
paths:
  root: /test/root
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
paths:
  root: /custom/root
cache:
  compression: zstd
  wake_interval: 250ms
  io_workers: 8
loader:
  shards: 32
  ttl: 1m
tracker:
  gc_budget: 10
logging:
  level: debug
  format: text
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/custom/root" {
		t.Errorf("expected root=/custom/root, got %s", cfg.Paths.Root)
	}
	if cfg.Cache.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Cache.Compression)
	}
	if cfg.Cache.WakeInterval != 250*time.Millisecond {
		t.Errorf("expected wake_interval=250ms, got %s", cfg.Cache.WakeInterval)
	}
	if cfg.Cache.IOWorkers != 8 {
		t.Errorf("expected io_workers=8, got %d", cfg.Cache.IOWorkers)
	}
	if cfg.Loader.Shards != 32 || cfg.Loader.TTL != time.Minute {
		t.Errorf("expected loader 32 / 1m, got %d / %s", cfg.Loader.Shards, cfg.Loader.TTL)
	}
	if cfg.Tracker.GCBudget != 10 {
		t.Errorf("expected gc_budget=10, got %d", cfg.Tracker.GCBudget)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("expected logging debug/text, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "cache: [unterminated")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
environment: production
paths:
  root: /default/root
cache:
  compression: lz4
production:
  paths:
    root: /prod/root
  cache:
    compression: zstd
  logging:
    level: warn
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}
	if cfg.Cache.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Cache.Compression)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level=warn, got %s", cfg.Logging.Level)
	}
	// The explicit section replaces the built-in production defaults.
	if cfg.Logging.Format != "auto" {
		t.Errorf("expected format=auto, got %s", cfg.Logging.Format)
	}
}

func TestProductionDefaultsToJSON(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "environment: production\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format=json in production, got %s", cfg.Logging.Format)
	}
}

func TestOtherEnvironmentSectionIgnored(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
environment: development
paths:
  root: /dev/root
production:
  paths:
    root: /prod/root
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Paths.Root != "/dev/root" {
		t.Errorf("expected root=/dev/root, got %s", cfg.Paths.Root)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("GFXCACHE_TEST_UNSET", "")

	cfg, err := LoadFile(writeConfig(t, `
paths:
  root: ${HOME}/assets
metrics:
  textfile: ${GFXCACHE_ROOT}/metrics/${GFXCACHE_TEST_UNSET:-gfxcache}.prom
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Paths.Root != "/home/tester/assets" {
		t.Errorf("expected root=/home/tester/assets, got %s", cfg.Paths.Root)
	}
	if cfg.Metrics.Textfile != "/home/tester/assets/metrics/gfxcache.prom" {
		t.Errorf("unexpected textfile %s", cfg.Metrics.Textfile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"empty root", func(c *Config) { c.Paths.Root = "" }, "paths.root is required"},
		{"bad compression", func(c *Config) { c.Cache.Compression = "gzip" }, "cache.compression"},
		{"zero wake", func(c *Config) { c.Cache.WakeInterval = 0 }, "cache.wake_interval"},
		{"zero io workers", func(c *Config) { c.Cache.IOWorkers = 0 }, "cache.io_workers"},
		{"negative decode workers", func(c *Config) { c.Cache.DecodeWorkers = -1 }, "cache.decode_workers"},
		{"shards not power of two", func(c *Config) { c.Loader.Shards = 10 }, "loader.shards"},
		{"zero ttl", func(c *Config) { c.Loader.TTL = 0 }, "loader.ttl"},
		{"zero budget", func(c *Config) { c.Tracker.GCBudget = 0 }, "tracker.gc_budget"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("expected error containing %q, got %v", test.wantErr, err)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.Root = filepath.Join(t.TempDir(), "nested", "cache")
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.Root); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}
