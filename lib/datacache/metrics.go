// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"time"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// Load sources reported to Metrics.ObserveLoad.
const (
	SourceDisk     = "disk"
	SourceInFlight = "inflight"
)

// Metrics receives observations from a FileIO. Optional: a nil
// Metrics in FileIOConfig disables collection. The prommetrics
// package has a Prometheus implementation.
type Metrics interface {
	// ObserveLoad records one finished load. source is SourceDisk or
	// SourceInFlight; err is nil on success.
	ObserveLoad(category assetkey.Category, source string, bytes int, duration time.Duration, err error)

	// ObserveStore records one finished store with the number of
	// bytes written (after compression) and the tag used.
	ObserveStore(category assetkey.Category, compression CompressionTag, bytes int, duration time.Duration, err error)

	// RecordQueueDepth records the queue lengths the worker found on
	// its last wake.
	RecordQueueDepth(loads, stores int)

	// RecordInFlightStores records the size of the in-flight store
	// map. Called with the FileIO's lock held, so it must not call
	// back into the FileIO.
	RecordInFlightStores(count int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveLoad(assetkey.Category, string, int, time.Duration, error) {}
func (noopMetrics) ObserveStore(assetkey.Category, CompressionTag, int, time.Duration, error) {}
func (noopMetrics) RecordQueueDepth(int, int) {}
func (noopMetrics) RecordInFlightStores(int) {}
