// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR encoding used for serialized asset
// records (meshes, texture headers, drawables).
//
// Encoding uses RFC 8949 Core Deterministic Encoding so the same
// logical record always produces the same bytes, which keeps content
// keys derived from serialized records stable. Decoding rejects
// duplicate map keys: a record with two "vertices" fields is corrupt,
// not ambiguous.
//
// Types that implement encoding.TextMarshaler (asset ids) travel as
// CBOR text strings, so ids in records read the same as file names.
package codec
