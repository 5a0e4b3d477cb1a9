// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetloader

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/clock"
	"github.com/bureau-foundation/gfxcache/lib/datacache"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultShards = 16
	DefaultTTL    = 30 * time.Second
)

// Fetcher starts an asynchronous load. *datacache.Cache implements it.
type Fetcher interface {
	Fetch(info assetkey.Info) *datacache.LoadRequest
}

// Config holds the parameters for [New]. Fetcher, Clock, and Logger
// are required.
type Config struct {
	Fetcher Fetcher

	// Shards is the size of the lock arena. Must be a power of two.
	// Default DefaultShards.
	Shards int

	// TTL is how long a loaded entry stays after GC first sees it
	// finished. Default DefaultTTL.
	TTL time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Loader maps keys to in-flight or completed fetches. Safe for
// concurrent use.
type Loader struct {
	fetcher Fetcher
	ttl     time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	entries sync.Map // assetkey.Key -> *Entry
	shards  []sync.RWMutex
	mask    uint64
	next    atomic.Uint64
}

// Entry is one deduplicated fetch.
type Entry struct {
	info  assetkey.Info
	shard int

	start   sync.Once
	request atomic.Pointer[datacache.LoadRequest]

	// terminalSince is the clock reading (unix nanoseconds) at which
	// GC first saw the request finished. Zero until then.
	terminalSince atomic.Int64
}

// Info returns the key the entry was created for.
func (e *Entry) Info() assetkey.Info {
	return e.info
}

// Request returns the shared load request.
func (e *Entry) Request() *datacache.LoadRequest {
	return e.request.Load()
}

// Shard returns the index of the entry's lock in the arena.
func (e *Entry) Shard() int {
	return e.shard
}

// New returns an empty Loader.
func New(config Config) (*Loader, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("asset loader: Fetcher is required")
	}
	if config.Clock == nil {
		return nil, fmt.Errorf("asset loader: Clock is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("asset loader: Logger is required")
	}
	if config.Shards == 0 {
		config.Shards = DefaultShards
	}
	if config.Shards < 0 || config.Shards&(config.Shards-1) != 0 {
		return nil, fmt.Errorf("asset loader: Shards must be a power of two, got %d", config.Shards)
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}

	return &Loader{
		fetcher: config.Fetcher,
		ttl:     config.TTL,
		clock:   config.Clock,
		logger:  config.Logger,
		shards:  make([]sync.RWMutex, config.Shards),
		mask:    uint64(config.Shards - 1),
	}, nil
}

// GetOrInsert returns the entry for info, creating it and starting
// its fetch if there is none. Concurrent callers for one key all get
// the same entry, and the fetch runs once. The entry's request is set
// by the time GetOrInsert returns.
func (l *Loader) GetOrInsert(info assetkey.Info) *Entry {
	value, ok := l.entries.Load(info.Key)
	if !ok {
		candidate := &Entry{
			info:  info,
			shard: int((l.next.Add(1) - 1) & l.mask),
		}
		value, _ = l.entries.LoadOrStore(info.Key, candidate)
	}
	entry := value.(*Entry)
	l.startFetch(entry)
	return entry
}

func (l *Loader) startFetch(entry *Entry) {
	entry.start.Do(func() {
		entry.request.Store(l.fetcher.Fetch(entry.info))
	})
}

// Find returns the entry for key without starting a fetch.
func (l *Loader) Find(key assetkey.Key) (*Entry, bool) {
	value, ok := l.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := value.(*Entry)
	// An entry is published before its fetch starts; wait for the
	// creator so callers never see a nil request.
	l.startFetch(entry)
	return entry, true
}

// LockShared read-locks the entry's shard and returns the unlock
// function.
func (l *Loader) LockShared(entry *Entry) (unlock func()) {
	lock := &l.shards[entry.shard]
	lock.RLock()
	return lock.RUnlock
}

// LockExclusive write-locks the entry's shard and returns the unlock
// function.
func (l *Loader) LockExclusive(entry *Entry) (unlock func()) {
	lock := &l.shards[entry.shard]
	lock.Lock()
	return lock.Unlock
}

// Clear drops every entry. Requests already started keep running and
// stay valid for whoever holds them.
func (l *Loader) Clear() {
	l.entries.Clear()
}

// GC evicts finished entries: failed ones at once, loaded ones when
// they have been finished for at least the TTL. Returns the number
// evicted.
func (l *Loader) GC() int {
	now := l.clock.Now().UnixNano()
	evicted := 0
	l.entries.Range(func(key, value any) bool {
		entry := value.(*Entry)
		request := entry.request.Load()
		if request == nil {
			return true
		}
		switch request.State() {
		case datacache.StatePending:
			return true
		case datacache.StateFailed:
			if l.entries.CompareAndDelete(key, entry) {
				evicted++
			}
			return true
		}

		since := entry.terminalSince.Load()
		if since == 0 {
			entry.terminalSince.CompareAndSwap(0, now)
			return true
		}
		if time.Duration(now-since) >= l.ttl && l.entries.CompareAndDelete(key, entry) {
			evicted++
		}
		return true
	})
	if evicted > 0 {
		l.logger.Debug("asset loader gc", "evicted", evicted)
	}
	return evicted
}

// Len returns the number of entries.
func (l *Loader) Len() int {
	count := 0
	l.entries.Range(func(any, any) bool {
		count++
		return true
	})
	return count
}
