// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the gfxcache tool.
//
// Configuration comes from a single file named by either the
// GFXCACHE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no discovery and no fallback file.
// A command run without either uses [Default].
//
// The file may carry development and production sections that
// override base values when [Config].Environment matches. Production
// logs JSON unless told otherwise.
//
// ${HOME}, ${GFXCACHE_ROOT}, and ${VAR:-default} patterns are expanded
// in path fields after loading. Environment variables never override
// config values directly.
package config
