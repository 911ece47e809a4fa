// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/piezo_walk/internal/piezo"
)

// ErrNonMonotonic is returned by Process for a sample whose timestamp is not
// after the previous one. The sample is ignored.
var ErrNonMonotonic = errors.New("sample timestamp not increasing")

// stoppedAfter is how long without a step before a Stopped observation.
const stoppedAfter = 1.5

// Detector turns piezo samples into steps and a walking speed.
//
// A step starts when the value reaches StepThreshold and can only start
// again after the value has dropped to NoStepThreshold. Every time the
// session crosses a whole second the detector counts the steps inside the
// trailing window and converts them to steps per minute.
//
// A Detector is not safe for concurrent use.
type Detector struct {
	cfg    Config
	window float64 // seconds

	stepOn      bool
	recentSteps []float64 // oldest first
	speeds      []int
	steps       int

	last    float64
	started bool
}

// New returns a detector with cleared state.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, window: cfg.Window.Seconds()}, nil
}

// Process consumes one sample and returns the events it triggered, filtered
// by the report mode.
func (d *Detector) Process(s piezo.Sample) ([]Event, error) {
	if d.started && s.Timestamp <= d.last {
		return nil, fmt.Errorf("%w: %.4f after %.4f", ErrNonMonotonic, s.Timestamp, d.last)
	}

	prev := d.last
	d.last = s.Timestamp
	d.started = true

	var events []Event

	d.purge(s.Timestamp)
	if secondOf(s.Timestamp) != secondOf(prev) {
		events = d.emit(events, d.recompute(s.Timestamp)...)
	}

	switch {
	case !d.stepOn && s.Value >= d.cfg.StepThreshold:
		d.stepOn = true
		d.steps++
		d.recentSteps = append(d.recentSteps, s.Timestamp)
		events = d.emit(events, Event{Kind: Step, Timestamp: s.Timestamp})
	case d.stepOn && s.Value <= d.cfg.NoStepThreshold:
		d.stepOn = false
	}

	return events, nil
}

// recompute runs the per-second bookkeeping: purge, stop check and speed.
func (d *Detector) recompute(now float64) []Event {
	d.purge(now)

	var events []Event
	if !d.steppedWithin(now, stoppedAfter) {
		events = append(events, Event{Kind: Stopped, Timestamp: now})
	}

	speed := int(math.Floor(float64(len(d.recentSteps)) * 60 / d.window))
	d.speeds = append(d.speeds, speed)
	events = append(events, Event{Kind: Speed, Timestamp: now, StepsPerMinute: speed})

	return events
}

// purge drops steps that are a full window or more behind now.
func (d *Detector) purge(now float64) {
	i := 0
	for i < len(d.recentSteps) && now-d.recentSteps[i] >= d.window {
		i++
	}
	if i > 0 {
		d.recentSteps = append(d.recentSteps[:0], d.recentSteps[i:]...)
	}
}

func (d *Detector) steppedWithin(now, seconds float64) bool {
	for _, ts := range d.recentSteps {
		if now-ts < seconds {
			return true
		}
	}
	return false
}

func (d *Detector) emit(events []Event, evs ...Event) []Event {
	for _, e := range evs {
		switch {
		case e.Kind == Stopped,
			e.Kind == Step && d.cfg.Mode == StepEvents,
			e.Kind == Speed && d.cfg.Mode == SpeedSeries:
			events = append(events, e)
		}
	}
	return events
}

// StepOn reports whether the detector is inside a step.
func (d *Detector) StepOn() bool { return d.stepOn }

// RecentSteps returns a copy of the step timestamps inside the window.
func (d *Detector) RecentSteps() []float64 {
	return append([]float64(nil), d.recentSteps...)
}

// Summary returns the totals collected so far.
func (d *Detector) Summary() Summary {
	return Summary{
		Steps:  d.steps,
		Speeds: append([]int(nil), d.speeds...),
	}
}

// secondOf returns the whole session second ts falls in.
func secondOf(ts float64) int64 {
	return int64(ts)
}
