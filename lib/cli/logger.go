// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger returns the logger commands report through, writing
// to stderr. format is "text", "json", or "auto": auto uses the text
// handler when stderr is a terminal and JSON when it is piped or
// redirected.
//
//	logger = logger.With("command", "put", "category", category.String())
func NewCommandLogger(level, format string) (*slog.Logger, error) {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level, format)
}

func newLogger(w io.Writer, terminal bool, level, format string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	options := &slog.HandlerOptions{Level: slogLevel}

	useText := terminal
	switch format {
	case "text":
		useText = true
	case "json":
		useText = false
	case "auto", "":
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if useText {
		return slog.New(slog.NewTextHandler(w, options)), nil
	}
	return slog.New(slog.NewJSONHandler(w, options)), nil
}
