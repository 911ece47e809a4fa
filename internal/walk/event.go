// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"fmt"
)

// EventKind identifies what a detector observed.
type EventKind int

const (
	// Step is a rising crossing of the step threshold.
	Step EventKind = iota + 1
	// Speed is the steps-per-minute estimate at a whole-second boundary.
	Speed
	// Stopped reports that no step happened in the last 1.5 seconds. It
	// does not change detector state.
	Stopped
)

var kindNames = map[EventKind]string{
	Step:    "step",
	Speed:   "speed",
	Stopped: "stopped",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Event is a step, speed sample or stop observation. StepsPerMinute is only
// set for Speed events.
type Event struct {
	Kind           EventKind `json:"kind"`
	Timestamp      float64   `json:"t"`
	StepsPerMinute int       `json:"spm,omitempty"`
}

// String renders the event as one console line.
func (e Event) String() string {
	switch e.Kind {
	case Step:
		return fmt.Sprintf("%f Step!", e.Timestamp)
	case Stopped:
		return fmt.Sprintf("%f Person stopped!", e.Timestamp)
	case Speed:
		return fmt.Sprintf("%f walking at %d steps per minute", e.Timestamp, e.StepsPerMinute)
	default:
		return fmt.Sprintf("%f %s", e.Timestamp, e.Kind)
	}
}
