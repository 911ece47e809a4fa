// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package piezo

import (
	"io"
	"math"
	"time"
)

// MockConfig shapes the synthetic gait produced by MockSource.
type MockConfig struct {
	Cadence  float64       // steps per minute
	Rate     float64       // samples per second
	Duration time.Duration // length of the session
	Peak     int           // value while the heel is down
	Rest     int           // value while the foot is in the air

	// WalkFor and Pause alternate walking and standing still. A zero Pause
	// walks for the whole session.
	WalkFor time.Duration
	Pause   time.Duration
}

type mockSource struct {
	cfg   MockConfig
	index int
}

// NewMockSource creates a deterministic source that emits one square pulse
// per step, so a detector fed from it registers exactly one step per period.
// During a pause it stays at Rest.
func NewMockSource(cfg MockConfig) Source {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Cadence <= 0 {
		cfg.Cadence = 100
	}
	if cfg.Peak == 0 {
		cfg.Peak = 700
	}
	if cfg.Rest == 0 {
		cfg.Rest = 100
	}
	return &mockSource{cfg: cfg}
}

func (m *mockSource) Next() (Sample, error) {
	ts := roundTimestamp(float64(m.index) / m.cfg.Rate)
	if ts >= m.cfg.Duration.Seconds() {
		return Sample{}, io.EOF
	}
	m.index++

	pos := ts
	if m.cfg.Pause > 0 && m.cfg.WalkFor > 0 {
		pos = math.Mod(ts, (m.cfg.WalkFor + m.cfg.Pause).Seconds())
		if pos >= m.cfg.WalkFor.Seconds() {
			return Sample{Timestamp: ts, Value: m.cfg.Rest}, nil
		}
	}

	period := 60 / m.cfg.Cadence
	phase := math.Mod(pos, period) / period

	value := m.cfg.Rest
	if phase < 0.2 {
		value = m.cfg.Peak
	}
	return Sample{Timestamp: ts, Value: value}, nil
}
