// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log/slog"
	"os"
)

// Env carries the process-level collaborators shared by every runner.
// Stdout receives primary output only; diagnostics go through Logger.
type Env struct {
	Stdout  io.Writer
	Logger  *slog.Logger
	Verbose bool
}

func (e Env) withDefaults() Env {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// NewLogger returns a text logger on stderr, at debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
