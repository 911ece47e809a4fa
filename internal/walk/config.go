// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"fmt"
	"strings"
	"time"
)

// ReportMode selects which events a Detector emits.
type ReportMode int

const (
	// SpeedSeries emits one speed sample per elapsed second.
	SpeedSeries ReportMode = iota
	// StepEvents emits one event per detected step.
	StepEvents
)

func (m ReportMode) String() string {
	switch m {
	case SpeedSeries:
		return "speed"
	case StepEvents:
		return "steps"
	default:
		return fmt.Sprintf("ReportMode(%d)", int(m))
	}
}

// ParseReportMode accepts "speed" or "steps".
func ParseReportMode(s string) (ReportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "speed":
		return SpeedSeries, nil
	case "steps":
		return StepEvents, nil
	default:
		return 0, fmt.Errorf("unknown report mode %q (want speed or steps)", s)
	}
}

// Config holds the detector parameters. All fields are required.
type Config struct {
	StepThreshold   int           // value at or above which a step starts
	NoStepThreshold int           // value at or below which a step ends
	Window          time.Duration // trailing window for the speed estimate
	Mode            ReportMode
}

// Validate checks the thresholds form a hysteresis band and the window is
// usable.
func (c Config) Validate() error {
	if c.NoStepThreshold > c.StepThreshold {
		return fmt.Errorf("no-step threshold %d must not exceed step threshold %d", c.NoStepThreshold, c.StepThreshold)
	}
	if c.Window <= 0 {
		return fmt.Errorf("time window must be positive, got %s", c.Window)
	}
	if c.Mode != SpeedSeries && c.Mode != StepEvents {
		return fmt.Errorf("invalid report mode %s", c.Mode)
	}
	return nil
}
