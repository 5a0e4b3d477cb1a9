// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetloader

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/clock"
	"github.com/bureau-foundation/gfxcache/lib/datacache"
	"github.com/bureau-foundation/gfxcache/lib/testutil"
)

// countingFetcher records every fetch. With no inner fetcher the
// returned requests stay pending forever.
type countingFetcher struct {
	inner Fetcher
	calls atomic.Int32

	mu   sync.Mutex
	keys []assetkey.Key
}

func (f *countingFetcher) Fetch(info assetkey.Info) *datacache.LoadRequest {
	f.calls.Add(1)
	f.mu.Lock()
	f.keys = append(f.keys, info.Key)
	f.mu.Unlock()
	if f.inner != nil {
		return f.inner.Fetch(info)
	}
	return datacache.NewLoadRequest(info)
}

func newTestLoader(t *testing.T, config Config) *Loader {
	t.Helper()
	if config.Fetcher == nil {
		config.Fetcher = &countingFetcher{}
	}
	if config.Clock == nil {
		config.Clock = clock.Fake(time.Unix(1_700_000_000, 0))
	}
	if config.Logger == nil {
		config.Logger = testutil.TestLogger(t)
	}
	loader, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return loader
}

func imageInfo(content string) assetkey.Info {
	return assetkey.InfoFromKey(assetkey.Generate([]byte(content), assetkey.Image, 0))
}

func TestNewValidatesConfig(t *testing.T) {
	logger := testutil.TestLogger(t)
	fake := clock.Fake(time.Unix(0, 0))
	fetcher := &countingFetcher{}

	tests := []struct {
		name   string
		config Config
	}{
		{"missing fetcher", Config{Clock: fake, Logger: logger}},
		{"missing clock", Config{Fetcher: fetcher, Logger: logger}},
		{"missing logger", Config{Fetcher: fetcher, Clock: fake}},
		{"shards not a power of two", Config{Fetcher: fetcher, Clock: fake, Logger: logger, Shards: 12}},
		{"negative shards", Config{Fetcher: fetcher, Clock: fake, Logger: logger, Shards: -4}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.config); err == nil {
				t.Fatal("New succeeded, want error")
			}
		})
	}
}

func TestGetOrInsertConcurrentSingleFetch(t *testing.T) {
	fetcher := &countingFetcher{}
	loader := newTestLoader(t, Config{Fetcher: fetcher})
	info := imageInfo("shared texture")

	const callers = 64
	entries := make([]*Entry, callers)
	var ready, done sync.WaitGroup
	start := make(chan struct{})
	for i := range callers {
		ready.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			ready.Done()
			<-start
			entries[i] = loader.GetOrInsert(info)
		}()
	}
	ready.Wait()
	close(start)
	done.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("Fetch called %d times, want 1", got)
	}
	for i, entry := range entries {
		if entry != entries[0] {
			t.Fatalf("caller %d got a different entry", i)
		}
		if entry.Request() == nil {
			t.Fatalf("caller %d saw a nil request", i)
		}
		if entry.Request() != entries[0].Request() {
			t.Fatalf("caller %d got a different request", i)
		}
	}
	if loader.Len() != 1 {
		t.Errorf("Len = %d, want 1", loader.Len())
	}
}

func TestTwoCallersShareImageRequest(t *testing.T) {
	fetcher := &countingFetcher{}
	loader := newTestLoader(t, Config{Fetcher: fetcher})
	info := imageInfo("k1")

	results := make(chan *Entry, 2)
	for range 2 {
		go func() { results <- loader.GetOrInsert(info) }()
	}
	first := testutil.RequireReceive(t, results, 5*time.Second, "first caller")
	second := testutil.RequireReceive(t, results, 5*time.Second, "second caller")

	if first.Request() != second.Request() {
		t.Error("callers got different requests")
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("Fetch called %d times, want 1", got)
	}
	if fetcher.keys[0] != info.Key {
		t.Errorf("fetched %s, want %s", fetcher.keys[0], info.Key)
	}
}

func TestShardsAssignedRoundRobin(t *testing.T) {
	loader := newTestLoader(t, Config{Shards: 4})

	var shards []int
	for i := range 6 {
		shards = append(shards, loader.GetOrInsert(imageInfo(string(rune('a'+i)))).Shard())
	}
	want := []int{0, 1, 2, 3, 0, 1}
	for i := range want {
		if shards[i] != want[i] {
			t.Fatalf("shards = %v, want %v", shards, want)
		}
	}

	// Repeat lookups keep the shard chosen at creation.
	for i := range 6 {
		if got := loader.GetOrInsert(imageInfo(string(rune('a' + i)))).Shard(); got != want[i] {
			t.Errorf("entry %d moved to shard %d, want %d", i, got, want[i])
		}
	}
}

func TestEntryLocks(t *testing.T) {
	loader := newTestLoader(t, Config{Shards: 2})
	first := loader.GetOrInsert(imageInfo("first"))
	second := loader.GetOrInsert(imageInfo("second"))
	third := loader.GetOrInsert(imageInfo("third"))
	if first.Shard() != third.Shard() || first.Shard() == second.Shard() {
		t.Fatalf("unexpected shards %d %d %d", first.Shard(), second.Shard(), third.Shard())
	}

	unlock := loader.LockExclusive(first)

	// A different shard is free.
	otherDone := make(chan struct{})
	go func() {
		release := loader.LockExclusive(second)
		release()
		close(otherDone)
	}()
	testutil.RequireClosed(t, otherDone, 5*time.Second, "lock on another shard")

	// The same shard, even through another entry, waits.
	sameDone := make(chan struct{})
	go func() {
		release := loader.LockShared(third)
		release()
		close(sameDone)
	}()
	select {
	case <-sameDone:
		t.Fatal("shared lock acquired while the shard was held exclusively")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	testutil.RequireClosed(t, sameDone, 5*time.Second, "shared lock after release")

	// Shared holders do not exclude each other.
	releaseA := loader.LockShared(first)
	releaseB := loader.LockShared(first)
	releaseA()
	releaseB()
}

func TestFindDoesNotFetch(t *testing.T) {
	fetcher := &countingFetcher{}
	loader := newTestLoader(t, Config{Fetcher: fetcher})
	info := imageInfo("find")

	if _, ok := loader.Find(info.Key); ok {
		t.Fatal("Find reported an entry before insertion")
	}
	created := loader.GetOrInsert(info)
	found, ok := loader.Find(info.Key)
	if !ok || found != created {
		t.Fatalf("Find = %v, %v; want the inserted entry", found, ok)
	}
	if fetcher.calls.Load() != 1 {
		t.Errorf("Fetch called %d times, want 1", fetcher.calls.Load())
	}
}

func TestClearRefetches(t *testing.T) {
	fetcher := &countingFetcher{}
	loader := newTestLoader(t, Config{Fetcher: fetcher})
	info := imageInfo("cleared")

	before := loader.GetOrInsert(info)
	loader.Clear()
	if loader.Len() != 0 {
		t.Fatalf("Len after Clear = %d", loader.Len())
	}
	after := loader.GetOrInsert(info)

	if before == after || before.Request() == after.Request() {
		t.Error("entry survived Clear")
	}
	if before.Request() == nil {
		t.Error("Clear invalidated a request held by a caller")
	}
	if fetcher.calls.Load() != 2 {
		t.Errorf("Fetch called %d times, want 2", fetcher.calls.Load())
	}
}

func TestGCEvictionPolicy(t *testing.T) {
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	fileIO, err := datacache.NewFileIO(datacache.FileIOConfig{
		Root:   t.TempDir(),
		Clock:  fake,
		Logger: testutil.TestLogger(t),
	})
	if err != nil {
		t.Fatalf("NewFileIO: %v", err)
	}
	t.Cleanup(func() { fileIO.Close() })
	cache := datacache.NewCache(fileIO)

	stored := imageInfo("present")
	store := cache.Store(stored, []byte("present"))
	if err := store.Wait(t.Context()); err != nil {
		t.Fatalf("store: %v", err)
	}

	pendingFetcher := &countingFetcher{}
	loader := newTestLoader(t, Config{
		Fetcher: fetcherFunc(func(info assetkey.Info) *datacache.LoadRequest {
			if info.Key == imageInfo("pending").Key {
				return pendingFetcher.Fetch(info)
			}
			return cache.Fetch(info)
		}),
		TTL:   10 * time.Second,
		Clock: fake,
	})

	loaded := loader.GetOrInsert(stored)
	missing := loader.GetOrInsert(imageInfo("absent"))
	pending := loader.GetOrInsert(imageInfo("pending"))
	testutil.RequireClosed(t, loaded.Request().Done(), 5*time.Second, "loaded request")
	testutil.RequireClosed(t, missing.Request().Done(), 5*time.Second, "missing request")

	// First pass: the failure goes, the success is stamped.
	if evicted := loader.GC(); evicted != 1 {
		t.Fatalf("first GC evicted %d, want 1", evicted)
	}
	if _, ok := loader.Find(missing.Info().Key); ok {
		t.Error("failed entry survived GC")
	}

	fake.Advance(9 * time.Second)
	if evicted := loader.GC(); evicted != 0 {
		t.Fatalf("GC before TTL evicted %d", evicted)
	}

	fake.Advance(time.Second)
	if evicted := loader.GC(); evicted != 1 {
		t.Fatalf("GC at TTL evicted %d, want 1", evicted)
	}
	if _, ok := loader.Find(loaded.Info().Key); ok {
		t.Error("loaded entry survived its TTL")
	}

	fake.Advance(time.Hour)
	loader.GC()
	if _, ok := loader.Find(pending.Info().Key); !ok {
		t.Error("pending entry was evicted")
	}
	if loader.Len() != 1 {
		t.Errorf("Len = %d, want 1", loader.Len())
	}

	// The evicted key is fetched again on demand.
	again := loader.GetOrInsert(stored)
	if again == loaded {
		t.Error("GetOrInsert returned the evicted entry")
	}
	testutil.RequireClosed(t, again.Request().Done(), 5*time.Second, "refetch")
	if string(again.Request().Payload()) != "present" {
		t.Errorf("refetched payload %q", again.Request().Payload())
	}
}

type fetcherFunc func(assetkey.Info) *datacache.LoadRequest

func (f fetcherFunc) Fetch(info assetkey.Info) *datacache.LoadRequest {
	return f(info)
}
