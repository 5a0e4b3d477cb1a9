// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetkey defines the identity of a cached graphics asset.
//
// A [Key] is a category, a set of category flags, and a 128-bit
// content-derived [ID]. IDs come from BLAKE3 keyed hashing of the
// source bytes, so identical content always maps to the same key
// regardless of process or call order. That determinism is what lets
// the data cache treat a repeated store of the same content as a
// no-op and lets a later run find assets produced by an earlier one.
//
// Keys are plain comparable values: use them directly as map keys.
// [Compare] gives the lexicographic total order (category, flags, id)
// for sorted containers and stable output.
//
// The package also owns the error taxonomy shared by every cache
// layer ([ErrNotFound], [ErrDecode], [ErrEncode], [ErrNotImplemented],
// [ErrIO]). Errors are wrapped with fmt.Errorf and matched with
// errors.Is.
//
// This package has no gfxcache-internal dependencies.
package assetkey
