// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Sink receives the events of a session.
type Sink interface {
	Emit(Event) error
}

// ConsoleSink writes one line per event, e.g. "4.500000 Step!".
type ConsoleSink struct {
	w io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Emit(e Event) error {
	_, err := fmt.Fprintln(s.w, e.String())
	return err
}

// MultiSink forwards every event to all of its sinks, even if one fails.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordingSink keeps every event in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingSink) Emit(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *RecordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
