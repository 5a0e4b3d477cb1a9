// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"errors"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// ErrClosed is the failure of requests enqueued after Close.
var ErrClosed = errors.New("data cache closed")

// IO is the storage capability behind a Cache.
type IO interface {
	// EnqueueLoad queues request and returns immediately. The request
	// finishes asynchronously.
	EnqueueLoad(request *LoadRequest)

	// LoadImmediate reads the stored bytes for info on the calling
	// goroutine. Meant for small metadata records only.
	LoadImmediate(info assetkey.Info) ([]byte, error)

	// Store queues a durable write and returns immediately. From this
	// call on, HasAsset reports the key and loads see the data.
	Store(request *StoreRequest)

	// HasAsset reports whether info is on disk or has a store in
	// flight.
	HasAsset(info assetkey.Info) bool

	// Close stops accepting requests, finishes the queued ones, and
	// waits for background work.
	Close() error
}

// Codec converts between stored bytes and decoded objects for each
// asset category. Metadata sidecar records never pass through it.
type Codec interface {
	// Decode turns stored bytes into a decoded object. Malformed
	// input fails with an error wrapping assetkey.ErrDecode.
	Decode(info assetkey.Info, data []byte) (any, error)

	// Encode serializes an in-memory value for storage. Categories
	// without an encoder fail with assetkey.ErrNotImplemented.
	Encode(info assetkey.Info, value any) ([]byte, error)

	// LoadFromStore produces the decoded object for a load that is
	// answered by a store still in flight.
	LoadFromStore(info assetkey.Info, request *StoreRequest) (any, error)
}
