// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// gfxcache inspects and populates a graphics asset cache directory:
// compute content keys, store and fetch payloads, and decode stored
// assets through the same loader, codec, and tracker the engine uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported (has on a missing asset)
		// return an exit code only.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root(ctx, os.Stdout).Execute(os.Args[1:])
}
