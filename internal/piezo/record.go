// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package piezo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every parse failure of a log line or a value
// received from the board.
var ErrMalformed = errors.New("malformed record")

// RecordError reports one record that was skipped. Line is 1-based and 0 for
// records that did not come from a file.
type RecordError struct {
	Line int
	Text string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("record %q: %v", e.Text, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParseRecord parses one line of the stored log:
//
//	<timestamp seconds>\t<integer value>
func ParseRecord(line string) (Sample, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 2 {
		return Sample{}, fmt.Errorf("%w: want 2 tab-separated fields, got %d", ErrMalformed, len(fields))
	}

	ts, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: timestamp %q", ErrMalformed, fields[0])
	}
	if math.IsNaN(ts) || math.IsInf(ts, 0) || ts < 0 {
		return Sample{}, fmt.Errorf("%w: timestamp %q out of range", ErrMalformed, fields[0])
	}

	value, err := ParseValue(fields[1])
	if err != nil {
		return Sample{}, err
	}

	return Sample{Timestamp: ts, Value: value}, nil
}

// ParseValue parses a raw sensor value as sent by the board.
func ParseValue(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: value %q", ErrMalformed, s)
	}
	return v, nil
}

// FormatRecord renders a sample as one newline-terminated log line.
func FormatRecord(s Sample) string {
	return fmt.Sprintf("%.4f\t%d\n", s.Timestamp, s.Value)
}

// roundTimestamp truncates sub-tenth-millisecond noise so live timestamps
// match what a recorded log would contain.
func roundTimestamp(seconds float64) float64 {
	return math.Round(seconds*1e4) / 1e4
}
