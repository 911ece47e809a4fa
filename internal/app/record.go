// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/piezo"
)

// DefaultRecordName names a recording after its length and start time.
func DefaultRecordName(duration time.Duration, start time.Time) string {
	return fmt.Sprintf("piezo_sensor_sample_%d_seconds_%s.csv",
		int(duration.Seconds()), start.Format("2006-01-02_15-04-05"))
}

// RunRecord saves cfg.Duration seconds of live samples to path in the
// two-column log format that RunReplay reads. An empty path selects
// DefaultRecordName.
func RunRecord(cfg *config.Config, env Env, path string) error {
	env = env.withDefaults()

	if path == "" {
		path = DefaultRecordName(cfg.SessionDuration(), time.Now())
	}

	src, err := piezo.OpenLive(cfg.LiveConfig(env.Logger))
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sample log: %w", err)
	}

	fmt.Fprintf(env.Stdout, "Ready to record samples for %d seconds!\n", cfg.Duration)

	var echo io.Writer
	if env.Verbose {
		echo = env.Stdout
	}

	w := bufio.NewWriter(f)
	n, err := record(src, w, echo, env.Logger)
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("flush sample log: %w", ferr)
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close sample log: %w", cerr)
	}
	if err != nil {
		return err
	}

	var size uint64
	if info, err := os.Stat(path); err == nil {
		size = uint64(info.Size())
	}
	env.Logger.Info("recording finished", "file", path, "samples", n, "size", humanize.Bytes(size))
	fmt.Fprintf(env.Stdout, "Recording finished and saved in file %s!\n", path)
	return nil
}

// record copies samples from src to w until the source ends. Unparseable
// values and failed writes are logged and skipped. echo, if set, receives
// a copy of every line.
func record(src piezo.Source, w io.Writer, echo io.Writer, log *slog.Logger) (int, error) {
	n := 0
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		var recErr *piezo.RecordError
		if errors.As(err, &recErr) {
			log.Warn("skipping malformed value", "text", recErr.Text, "err", recErr.Err)
			continue
		}
		if err != nil {
			return n, fmt.Errorf("read sample: %w", err)
		}

		line := piezo.FormatRecord(s)
		if echo != nil {
			fmt.Fprint(echo, line)
		}
		if _, err := io.WriteString(w, line); err != nil {
			log.Warn("could not write sample", "t", s.Timestamp, "err", err)
			continue
		}
		n++
	}
}
