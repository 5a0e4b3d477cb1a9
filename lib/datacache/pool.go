// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import "sync"

// pool bounds how many tasks of one kind run at once. submit starts a
// goroutine per task that waits for a slot, so submitting never
// blocks the caller. Every task is counted on the shared WaitGroup,
// which lets Close wait for chains of tasks that hop between pools.
type pool struct {
	slots   chan struct{}
	pending *sync.WaitGroup
}

func newPool(size int, pending *sync.WaitGroup) *pool {
	return &pool{slots: make(chan struct{}, size), pending: pending}
}

func (p *pool) submit(task func()) {
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.slots <- struct{}{}
		defer func() { <-p.slots }()
		task()
	}()
}
