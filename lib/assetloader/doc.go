// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetloader deduplicates asset fetches: however many
// goroutines ask for the same key at once, exactly one fetch reaches
// the data cache and every caller shares its request.
//
// Entries live in a lock-free map. Each entry also carries the index
// of one lock in a fixed arena of reader/writer locks, handed out
// round-robin when the entry is created. Callers that mutate a
// decoded asset in place take that lock through [Loader.LockShared]
// or [Loader.LockExclusive], so unrelated entries rarely contend no
// matter how keys hash.
//
// Completed entries do not live forever. [Loader.GC] evicts an entry
// once its request has been terminal for the configured TTL; failed
// requests are evicted on the first GC that sees them so the next
// caller retries. Pending entries are never evicted. An evicted key
// is simply fetched again by the next caller.
package assetloader
