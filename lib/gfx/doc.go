// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gfx is the decoded, ready-to-use form of cached assets: the
// objects a scene graph holds strong references to.
//
// Only the fields the cache needs to build and share these objects are
// modelled here. A Mesh or Texture either carries its data in memory
// or names the asset key it will be streamed from (Source), which is
// how drawables reference sub-resources without decoding them eagerly.
package gfx
