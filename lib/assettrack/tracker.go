// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assettrack

import (
	"sync"
	"weak"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/gfx"
)

// DefaultGCBudget is the number of entries one GC call inspects when
// the caller passes a non-positive budget.
const DefaultGCBudget = 100

// Object is the closed set of decoded types a Tracker can hold.
type Object interface {
	gfx.Texture | gfx.Mesh | gfx.Drawable
}

// Kind tags which decoded type an entry refers to.
type Kind uint8

const (
	KindTexture Kind = iota + 1
	KindMesh
	KindDrawable
)

func (kind Kind) String() string {
	switch kind {
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	case KindDrawable:
		return "drawable"
	default:
		return "unknown"
	}
}

func kindOf[T Object]() Kind {
	var zero T
	switch any(&zero).(type) {
	case *gfx.Texture:
		return KindTexture
	case *gfx.Mesh:
		return KindMesh
	default:
		return KindDrawable
	}
}

// weakRef erases the type parameter of a typedRef so entries of every
// kind fit in one table.
type weakRef interface {
	kind() Kind
	expired() bool
	strong() any
}

type typedRef[T Object] struct {
	pointer weak.Pointer[T]
}

func (r typedRef[T]) kind() Kind { return kindOf[T]() }

func (r typedRef[T]) expired() bool { return r.pointer.Value() == nil }

func (r typedRef[T]) strong() any {
	if value := r.pointer.Value(); value != nil {
		return value
	}
	return nil
}

type entry struct {
	key assetkey.Key
	ref weakRef
}

// sweep is the GC cursor. The zero value is idle.
type sweep struct {
	active bool
	cursor int
}

// Tracker is a weak-reference cache of decoded assets. Safe for
// concurrent use: lookups take a shared lock, Insert and GC an
// exclusive one.
type Tracker struct {
	mu sync.RWMutex

	// entries is dense so the sweep cursor is a plain index; index
	// maps a key to its slot. Removal swaps the last entry into the
	// hole, which keeps every not-yet-visited entry at or after the
	// cursor.
	entries []entry
	index   map[assetkey.Key]int
	sweep   sweep
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{index: make(map[assetkey.Key]int)}
}

// Insert registers a weak reference to object under key, replacing
// any previous entry, and resets an in-progress GC sweep. A nil
// object is ignored.
func Insert[T Object](t *Tracker, key assetkey.Key, object *T) {
	if object == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertLocked(key, typedRef[T]{pointer: weak.Make(object)})
}

func (t *Tracker) insertLocked(key assetkey.Key, ref weakRef) {
	if position, exists := t.index[key]; exists {
		t.entries[position].ref = ref
	} else {
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, entry{key: key, ref: ref})
	}
	t.sweep = sweep{}
}

// Find returns the live object of type T registered under key. It
// returns false when the key is absent, was registered with another
// type, or its object has been collected.
func Find[T Object](t *Tracker, key assetkey.Key) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return findLocked[T](t, key)
}

func findLocked[T Object](t *Tracker, key assetkey.Key) (*T, bool) {
	position, exists := t.index[key]
	if !exists {
		return nil, false
	}
	ref, matches := t.entries[position].ref.(typedRef[T])
	if !matches {
		return nil, false
	}
	value := ref.pointer.Value()
	return value, value != nil
}

// GetOrInsert returns the live object of type T under key, or calls
// create, registers the result, and returns it. The check and insert
// happen under one exclusive lock, so concurrent callers for the same
// key share a single created object. create must not call back into
// the tracker.
func GetOrInsert[T Object](t *Tracker, key assetkey.Key, create func() *T) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, found := findLocked[T](t, key); found {
		return existing
	}
	object := create()
	if object != nil {
		t.insertLocked(key, typedRef[T]{pointer: weak.Make(object)})
	}
	return object
}

// Handle is an untyped strong reference returned by Lookup. Holding a
// Handle keeps the object alive.
type Handle struct {
	Kind   Kind
	object any
}

// Texture narrows the handle to a texture.
func (h Handle) Texture() (*gfx.Texture, bool) {
	texture, ok := h.object.(*gfx.Texture)
	return texture, ok
}

// Mesh narrows the handle to a mesh.
func (h Handle) Mesh() (*gfx.Mesh, bool) {
	mesh, ok := h.object.(*gfx.Mesh)
	return mesh, ok
}

// Drawable narrows the handle to a drawable.
func (h Handle) Drawable() (*gfx.Drawable, bool) {
	drawable, ok := h.object.(*gfx.Drawable)
	return drawable, ok
}

// Lookup returns a strong handle to whatever live object is registered
// under key.
func (t *Tracker) Lookup(key assetkey.Key) (Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	position, exists := t.index[key]
	if !exists {
		return Handle{}, false
	}
	ref := t.entries[position].ref
	object := ref.strong()
	if object == nil {
		return Handle{}, false
	}
	return Handle{Kind: ref.kind(), object: object}, true
}

// GC continues the sweep for expired entries, inspecting at most
// budget entries (DefaultGCBudget if budget <= 0). Expired entries are
// removed; live ones are skipped. The cursor is kept for the next
// call and cleared when the sweep reaches the end. Returns the number
// of entries inspected.
func (t *Tracker) GC(budget int) int {
	if budget <= 0 {
		budget = DefaultGCBudget
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.sweep.active {
		t.sweep = sweep{active: true}
	}

	inspected := 0
	for inspected < budget && t.sweep.cursor < len(t.entries) {
		inspected++
		if t.entries[t.sweep.cursor].ref.expired() {
			t.removeLocked(t.sweep.cursor)
		} else {
			t.sweep.cursor++
		}
	}

	if t.sweep.cursor >= len(t.entries) {
		t.sweep = sweep{}
	}
	return inspected
}

func (t *Tracker) removeLocked(position int) {
	last := len(t.entries) - 1
	delete(t.index, t.entries[position].key)
	if position != last {
		t.entries[position] = t.entries[last]
		t.index[t.entries[position].key] = position
	}
	t.entries[last] = entry{}
	t.entries = t.entries[:last]
}

// Len returns the number of entries, expired ones included.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Sweeping reports whether a GC sweep is in progress.
func (t *Tracker) Sweeping() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sweep.active
}
