// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"context"
	"sync/atomic"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// State is the lifecycle position of a load or store request.
type State uint32

const (
	// StatePending: enqueued, not finished.
	StatePending State = iota
	// StateLoaded: finished successfully. For stores, the payload is
	// on disk.
	StateLoaded
	// StateFailed: finished with an error; see Err.
	StateFailed
)

func (state State) String() string {
	switch state {
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// completion is the shared terminal-transition machinery of load and
// store requests. Exactly one finish call wins; its results are
// written before the state is published, so a reader that observes a
// terminal State (or a closed Done channel) sees them.
type completion struct {
	claimed atomic.Bool
	state   atomic.Uint32
	done    chan struct{}
	err     error
}

// finish runs apply and publishes the terminal state. Returns false
// if the request already finished.
func (c *completion) finish(err error, apply func()) bool {
	if !c.claimed.CompareAndSwap(false, true) {
		return false
	}
	if apply != nil {
		apply()
	}
	c.err = err
	if err != nil {
		c.state.Store(uint32(StateFailed))
	} else {
		c.state.Store(uint32(StateLoaded))
	}
	close(c.done)
	return true
}

// State returns the current state without blocking.
func (c *completion) State() State {
	return State(c.state.Load())
}

// Done is closed when the request reaches a terminal state.
func (c *completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure cause once the request has failed, nil
// otherwise.
func (c *completion) Err() error {
	if c.State() != StateFailed {
		return nil
	}
	return c.err
}

// Wait blocks until the request finishes or ctx is done. Abandoning
// the wait does not cancel the request. Returns the request's error,
// or ctx.Err() if the context ended first.
func (c *completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadRequest is one asynchronous read. Create with NewLoadRequest
// (or let Cache.Fetch do it) and hand it to IO.EnqueueLoad.
type LoadRequest struct {
	completion

	Key assetkey.Info

	payload []byte
	asset   any
}

// NewLoadRequest returns a pending load for info.
func NewLoadRequest(info assetkey.Info) *LoadRequest {
	request := &LoadRequest{Key: info}
	request.done = make(chan struct{})
	return request
}

// Payload returns the raw stored bytes once the request is loaded.
// Nil while pending, after failure, and when the load was answered
// from an in-flight store of an in-memory value rather than bytes.
func (r *LoadRequest) Payload() []byte {
	if r.State() != StateLoaded {
		return nil
	}
	return r.payload
}

// Asset returns the decoded object once the request is loaded. Nil
// when the IO has no codec or the key addresses a metadata sidecar.
func (r *LoadRequest) Asset() any {
	if r.State() != StateLoaded {
		return nil
	}
	return r.asset
}

func (r *LoadRequest) succeed(payload []byte, asset any) bool {
	return r.finish(nil, func() {
		r.payload = payload
		r.asset = asset
	})
}

func (r *LoadRequest) fail(err error) bool {
	return r.finish(err, nil)
}

// StoreRequest is one asynchronous durable write. It carries either
// raw bytes or an in-memory value that the codec encodes on the write
// path. The request owns its data: callers must not modify it after
// enqueueing.
type StoreRequest struct {
	completion

	Key assetkey.Info

	data  []byte
	value any
}

// NewStoreRequest returns a pending store of raw bytes.
func NewStoreRequest(info assetkey.Info, data []byte) *StoreRequest {
	request := &StoreRequest{Key: info, data: data}
	request.done = make(chan struct{})
	return request
}

// NewStoreValueRequest returns a pending store of an in-memory value,
// encoded by the IO's codec when written.
func NewStoreValueRequest(info assetkey.Info, value any) *StoreRequest {
	request := &StoreRequest{Key: info, value: value}
	request.done = make(chan struct{})
	return request
}

// Data returns the raw bytes being stored, or nil for a value store.
func (r *StoreRequest) Data() []byte {
	return r.data
}

// Value returns the in-memory value being stored, or nil for a raw
// store.
func (r *StoreRequest) Value() any {
	return r.value
}

// IsRaw reports whether the request stores raw bytes.
func (r *StoreRequest) IsRaw() bool {
	return r.value == nil
}

func (r *StoreRequest) succeed() bool {
	return r.finish(nil, nil)
}

func (r *StoreRequest) fail(err error) bool {
	return r.finish(err, nil)
}
