// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datacache persists derived graphics assets and serves them
// back asynchronously.
//
// The package has two layers:
//
//   - [IO] is the storage capability: enqueue a load, store a
//     payload, read a small record synchronously, ask whether a key
//     exists. [FileIO] implements it over one directory with a
//     sub-directory per asset category. Primary payloads live at
//     <root>/<Category>/<id>, sidecar metadata at
//     <root>/<Category>/<id>.meta.
//
//   - [Cache] is the entry point the asset-loading code holds. It
//     generates content keys and forwards fetches and stores to its
//     IO. There is no process-wide instance: the application builds
//     one Cache at startup and passes it to whoever needs it.
//
// FileIO runs one worker goroutine. Enqueue calls append to a load or
// store queue under a mutex and poke the worker through a capacity-1
// wake channel, so they never block. The worker drains both queues,
// sends blocking file I/O to a bounded I/O pool and payload decoding
// to a bounded decode pool, and goes back to sleep until the next
// wake or ticker tick. The worker itself never touches the disk.
//
// Stores are registered in an in-flight map the moment they are
// enqueued and leave it only after their write has finished. A load
// for a key with an in-flight store is answered from the store's
// in-memory payload instead of disk, which is what makes "store, then
// immediately fetch" return the stored content even though the write
// has not landed yet. [FileIO.HasAsset] consults the same map.
//
// Failures never stop the worker: the affected request moves to
// [StateFailed] with the error, and the error is logged. Callers must
// check a request's state before reading its payload.
//
// Payload files carry a one-byte compression tag and the uncompressed
// length ahead of the (possibly compressed) bytes; see
// [CompressionTag].
package datacache
