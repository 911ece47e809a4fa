// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package piezo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// ErrNoPort is returned by OpenLive when none of the candidate ports could
// be opened.
var ErrNoPort = errors.New("no serial port could be opened")

// Serial defaults for the Arduino piezo board.
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 3 * time.Second
	DefaultSettleDelay = 1500 * time.Millisecond

	// pause after a non-timeout read failure before trying again
	readRetryDelay = 100 * time.Millisecond
)

// DefaultPorts is the order in which candidate devices are tried. Linux
// renumbers the board's ACM device on every replug.
var DefaultPorts = []string{
	"/dev/ttyACM0",
	"/dev/ttyACM1",
	"/dev/ttyACM2",
	"/dev/ttyACM3",
	"/dev/ttyACM4",
}

// OpenFunc opens a serial port. serial.Open satisfies it.
type OpenFunc func(serial.OpenOptions) (io.ReadWriteCloser, error)

// LiveConfig configures a LiveSource.
type LiveConfig struct {
	Ports       []string
	BaudRate    int
	ReadTimeout time.Duration
	SettleDelay time.Duration

	// Duration bounds the session. Zero means read until the port fails
	// permanently or the process is stopped.
	Duration time.Duration

	Logger *slog.Logger

	// Hooks for tests; nil selects the real implementation.
	Open  OpenFunc
	Now   func() time.Time
	Sleep func(time.Duration)
}

// LiveSource reads newline-delimited integer values from the board and
// stamps them with the elapsed session time.
type LiveSource struct {
	port     io.ReadWriteCloser
	name     string
	reader   *bufio.Reader
	pending  []byte
	start    time.Time
	last     float64
	haveLast bool
	duration time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
	log      *slog.Logger
}

// OpenLive tries cfg.Ports in order and wraps the first one that opens.
func OpenLive(cfg LiveConfig) (*LiveSource, error) {
	cfg = cfg.withDefaults()

	timeout := readTimeoutMillis(cfg.ReadTimeout)
	for _, name := range cfg.Ports {
		opts := serial.OpenOptions{
			PortName:              name,
			BaudRate:              uint(cfg.BaudRate),
			DataBits:              8,
			StopBits:              1,
			ParityMode:            serial.PARITY_NONE,
			MinimumReadSize:       0,
			InterCharacterTimeout: timeout,
		}

		port, err := cfg.Open(opts)
		if err != nil {
			cfg.Logger.Warn("could not open serial port, trying the next one", "port", name, "err", err)
			continue
		}
		cfg.Logger.Info("serial connection opened", "port", name, "baud", cfg.BaudRate)

		// the board resets when the port opens
		cfg.Sleep(cfg.SettleDelay)

		return newLiveSource(port, name, cfg), nil
	}

	return nil, fmt.Errorf("%w (tried %s)", ErrNoPort, strings.Join(cfg.Ports, ", "))
}

func newLiveSource(port io.ReadWriteCloser, name string, cfg LiveConfig) *LiveSource {
	return &LiveSource{
		port:     port,
		name:     name,
		reader:   bufio.NewReader(port),
		start:    cfg.Now(),
		duration: cfg.Duration,
		now:      cfg.Now,
		sleep:    cfg.Sleep,
		log:      cfg.Logger,
	}
}

func (c LiveConfig) withDefaults() LiveConfig {
	if len(c.Ports) == 0 {
		c.Ports = DefaultPorts
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Open == nil {
		c.Open = serial.Open
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// readTimeoutMillis converts d to the termios VTIME granularity go-serial
// accepts: a multiple of 100ms between 100ms and 25.5s.
func readTimeoutMillis(d time.Duration) uint {
	ms := d.Round(100 * time.Millisecond).Milliseconds()
	switch {
	case ms < 100:
		ms = 100
	case ms > 25500:
		ms = 25500
	}
	return uint(ms)
}

// Port returns the device name that was opened.
func (s *LiveSource) Port() string { return s.name }

// Next blocks until a complete line arrives. Timeouts and read errors are
// retried until the session duration is exhausted, at which point Next
// returns io.EOF.
func (s *LiveSource) Next() (Sample, error) {
	for {
		if s.expired(s.elapsed()) {
			return Sample{}, io.EOF
		}

		chunk, err := s.reader.ReadBytes('\n')
		s.pending = append(s.pending, chunk...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// VTIME expired with nothing to read
				s.log.Debug("serial read timed out", "port", s.name)
			} else {
				s.log.Warn("serial read error", "port", s.name, "err", err)
				s.sleep(readRetryDelay)
			}
			continue
		}

		line := strings.TrimSpace(string(s.pending))
		s.pending = s.pending[:0]
		if line == "" {
			continue
		}

		ts := s.stamp()
		if s.expired(ts) {
			return Sample{}, io.EOF
		}

		value, err := ParseValue(line)
		if err != nil {
			return Sample{}, &RecordError{Text: line, Err: err}
		}
		return Sample{Timestamp: ts, Value: value}, nil
	}
}

func (s *LiveSource) Close() error {
	return s.port.Close()
}

func (s *LiveSource) elapsed() float64 {
	return s.now().Sub(s.start).Seconds()
}

func (s *LiveSource) expired(elapsed float64) bool {
	return s.duration > 0 && elapsed > s.duration.Seconds()
}

// stamp returns the rounded session time for a new line, nudged forward
// when two buffered lines land in the same tenth of a millisecond so the
// stream stays strictly increasing.
func (s *LiveSource) stamp() float64 {
	ts := roundTimestamp(s.elapsed())
	if s.haveLast && ts <= s.last {
		ts = roundTimestamp(s.last + 1e-4)
	}
	s.last = ts
	s.haveLast = true
	return ts
}
