// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/gfxcache/lib/assetformat"
	"github.com/bureau-foundation/gfxcache/lib/assetloader"
	"github.com/bureau-foundation/gfxcache/lib/assettrack"
	"github.com/bureau-foundation/gfxcache/lib/cli"
	"github.com/bureau-foundation/gfxcache/lib/clock"
	"github.com/bureau-foundation/gfxcache/lib/config"
	"github.com/bureau-foundation/gfxcache/lib/datacache"
	"github.com/bureau-foundation/gfxcache/lib/datacache/prommetrics"
)

// app is everything one command invocation needs, built once from the
// configuration and torn down by Close.
type app struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	fileIO  *datacache.FileIO
	cache   *datacache.Cache
	tracker *assettrack.Tracker
	loader  *assetloader.Loader
}

// loadConfig resolves the configuration: --config if given, else
// GFXCACHE_CONFIG if set, else the defaults.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openApp(configPath, command string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewCommandLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With("command", command)

	compression, err := datacache.ParseCompressionTag(cfg.Cache.Compression)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	tracker := assettrack.New()
	fileIO, err := datacache.NewFileIO(datacache.FileIOConfig{
		Root:          cfg.Paths.Root,
		Codec:         assetformat.New(tracker),
		Compression:   compression,
		WakeInterval:  cfg.Cache.WakeInterval,
		IOWorkers:     cfg.Cache.IOWorkers,
		DecodeWorkers: cfg.Cache.DecodeWorkers,
		Clock:         clock.Real(),
		Logger:        logger,
		Metrics:       prommetrics.New(registry),
	})
	if err != nil {
		return nil, err
	}
	cache := datacache.NewCache(fileIO)

	loader, err := assetloader.New(assetloader.Config{
		Fetcher: cache,
		Shards:  cfg.Loader.Shards,
		TTL:     cfg.Loader.TTL,
		Clock:   clock.Real(),
		Logger:  logger,
	})
	if err != nil {
		fileIO.Close()
		return nil, err
	}

	return &app{
		config:   cfg,
		logger:   logger,
		registry: registry,
		fileIO:   fileIO,
		cache:    cache,
		tracker:  tracker,
		loader:   loader,
	}, nil
}

// Close drains the data cache and writes the metrics textfile when
// one is configured.
func (a *app) Close() error {
	var errs []error
	if err := a.fileIO.Close(); err != nil {
		errs = append(errs, err)
	}
	if path := a.config.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
