// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assettrack is a cache of decoded assets that never keeps
// them alive.
//
// A [Tracker] maps asset keys to weak references (package weak) to
// decoded textures, meshes, and drawables. Whoever loads an asset
// registers it with [Insert]; later loads of the same sub-resource
// find it with [Find] and share it instead of decoding again. The
// scene graph owns the objects. Once the last strong reference goes
// away the garbage collector reclaims the object and the weak
// reference reports it as expired.
//
// Expired entries are removed by [Tracker.GC], a resumable sweep that
// visits at most budget entries per call. Calling it once per frame
// with a small budget spreads the cost of cleaning a large table
// across many frames. The sweep position is a small state machine
// (idle, or sweeping at a cursor) protected by the same lock as the
// table, and any [Insert] resets it to idle.
//
// The set of trackable types is closed: [Object] is a type-set
// constraint over the three decoded kinds, and lookups narrow by type
// so a key registered as a mesh is never returned as a texture.
package assettrack
