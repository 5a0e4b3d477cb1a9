// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds shared test helpers for the cache packages.
//
// [RequireClosed] and [RequireReceive] wrap the select-with-timeout
// pattern so tests waiting on request completion channels never hang
// a test binary when a worker deadlocks. They are the only place in
// the test suite that uses real wall-clock timeouts.
//
// [TestLogger] returns a slog.Logger that writes through t.Log, so
// worker log lines show up next to the failing test instead of on
// stderr.
//
// All helpers call t.Fatalf on failure.
package testutil
