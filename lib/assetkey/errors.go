// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetkey

import "errors"

// Error taxonomy shared by the cache layers. Failures are wrapped
// around one of these with fmt.Errorf so callers can classify them
// with errors.Is while still seeing the concrete cause.
var (
	// ErrNotFound: the key or source path does not exist.
	ErrNotFound = errors.New("asset not found")

	// ErrDecode: a payload is malformed for its category.
	ErrDecode = errors.New("asset decode failed")

	// ErrEncode: an in-memory value cannot be serialized for its
	// category.
	ErrEncode = errors.New("asset encode failed")

	// ErrNotImplemented: no codec exists for this category and
	// direction.
	ErrNotImplemented = errors.New("asset codec not implemented")

	// ErrIO: the filesystem failed during a read or write.
	ErrIO = errors.New("asset i/o failed")
)
