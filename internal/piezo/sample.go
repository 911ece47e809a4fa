// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package piezo

// Sample is a single piezo reading.
type Sample struct {
	Timestamp float64 `json:"t"` // seconds since session start
	Value     int     `json:"v"` // raw ADC value from the board
}

// Source is anything that can provide samples in timestamp order:
// the live serial connection, a replayed log, or the mock gait generator.
//
// Next returns io.EOF once the stream is exhausted. A *RecordError means a
// single record could not be parsed; the stream is still usable and the
// caller may keep calling Next.
type Source interface {
	Next() (Sample, error)
}
