// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/piezo_walk/internal/piezo"
)

// Result describes a finished session.
type Result struct {
	Summary Summary
	Samples int // samples fed to the detector
	Skipped int // malformed or out-of-order records
}

// Run pulls samples from src one at a time until it is exhausted, feeding
// det and forwarding events to sink. Malformed and out-of-order records are
// logged and skipped. Only a non-record source error ends the session early;
// the partial result is returned with it.
func Run(src piezo.Source, det *Detector, sink Sink, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}

	var res Result
	for {
		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var recErr *piezo.RecordError
		if errors.As(err, &recErr) {
			res.Skipped++
			log.Warn("skipping malformed record", "line", recErr.Line, "text", recErr.Text, "err", recErr.Err)
			continue
		}
		if err != nil {
			res.Summary = det.Summary()
			return res, fmt.Errorf("read sample: %w", err)
		}

		events, err := det.Process(sample)
		if err != nil {
			res.Skipped++
			log.Warn("skipping sample", "t", sample.Timestamp, "err", err)
			continue
		}
		res.Samples++

		for _, e := range events {
			if err := sink.Emit(e); err != nil {
				log.Warn("could not emit event", "kind", e.Kind, "t", e.Timestamp, "err", err)
			}
		}
	}

	res.Summary = det.Summary()
	return res, nil
}
