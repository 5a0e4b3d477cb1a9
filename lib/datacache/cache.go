// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// Cache forwards fetches and stores to one IO and generates content
// keys. Safe for concurrent use when its IO is.
type Cache struct {
	io IO
}

// NewCache returns a Cache over io. The Cache does not own io: the
// caller closes it.
func NewCache(io IO) *Cache {
	return &Cache{io: io}
}

// IO returns the backend.
func (c *Cache) IO() IO {
	return c.io
}

// Fetch enqueues an asynchronous load of info and returns the pending
// request.
func (c *Cache) Fetch(info assetkey.Info) *LoadRequest {
	request := NewLoadRequest(info)
	c.io.EnqueueLoad(request)
	return request
}

// FetchImmediate reads info on the calling goroutine. Use it for
// small metadata records only.
func (c *Cache) FetchImmediate(info assetkey.Info) ([]byte, error) {
	return c.io.LoadImmediate(info)
}

// Store enqueues a durable write of data under info.
func (c *Cache) Store(info assetkey.Info, data []byte) *StoreRequest {
	request := NewStoreRequest(info, data)
	c.io.Store(request)
	return request
}

// StoreValue enqueues a durable write of an in-memory value, encoded
// by the IO's codec.
func (c *Cache) StoreValue(info assetkey.Info, value any) *StoreRequest {
	request := NewStoreValueRequest(info, value)
	c.io.Store(request)
	return request
}

// HasAsset reports whether info is stored or being stored.
func (c *Cache) HasAsset(info assetkey.Info) bool {
	return c.io.HasAsset(info)
}

// GenerateSourceKey returns the content key of data.
func (c *Cache) GenerateSourceKey(data []byte, category assetkey.Category, flags assetkey.CategoryFlags) assetkey.Key {
	return assetkey.Generate(data, category, flags)
}

// GenerateSourceKeyFromFile returns the content key of the file at
// path. Fails with assetkey.ErrNotFound if it does not exist.
func (c *Cache) GenerateSourceKeyFromFile(path string, category assetkey.Category, flags assetkey.CategoryFlags) (assetkey.Key, error) {
	return assetkey.GenerateFile(path, category, flags)
}

// GenerateSourceKeyFromPath returns a key derived from the normalized
// path string rather than the file's content.
func (c *Cache) GenerateSourceKeyFromPath(path string, category assetkey.Category, flags assetkey.CategoryFlags) assetkey.Key {
	return assetkey.GeneratePath(path, category, flags)
}
