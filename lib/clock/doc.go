// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time source for the cache layers.
//
// Production code injects [Real]. Tests inject [Fake] and move time
// with [FakeClock.Advance], so wake-up tickers and TTL-based eviction
// can be exercised without sleeping.
package clock
