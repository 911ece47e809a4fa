// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package piezo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxRecordLen bounds a single log line; anything longer is reported as
// malformed and skipped up to the next newline.
const maxRecordLen = 4096

// ErrRecordTooLong is wrapped by the RecordError of an oversize line.
var ErrRecordTooLong = errors.New("record too long")

// ReplaySource yields the samples of a stored two-column log in file order.
type ReplaySource struct {
	reader *bufio.Reader
	closer io.Closer
	line   int
	done   bool
}

// NewReplaySource reads records from r. The caller owns r.
func NewReplaySource(r io.Reader) *ReplaySource {
	return &ReplaySource{reader: bufio.NewReaderSize(r, maxRecordLen)}
}

// OpenReplay opens a log file for replay. Close releases it.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample log: %w", err)
	}
	src := NewReplaySource(f)
	src.closer = f
	return src, nil
}

// Next returns the next valid record. Blank lines are ignored; a malformed
// line is returned as a *RecordError and the following call continues with
// the line after it.
func (s *ReplaySource) Next() (Sample, error) {
	for !s.done {
		raw, tooLong, err := s.readLine()
		if err != nil {
			return Sample{}, err
		}
		s.line++

		text := strings.TrimSpace(raw)
		if tooLong {
			return Sample{}, &RecordError{Line: s.line, Text: text[:min(len(text), 32)] + "...", Err: ErrRecordTooLong}
		}
		if text == "" {
			continue
		}

		sample, err := ParseRecord(text)
		if err != nil {
			return Sample{}, &RecordError{Line: s.line, Text: text, Err: err}
		}
		return sample, nil
	}
	return Sample{}, io.EOF
}

// readLine returns the next line without its newline. A line longer than
// maxRecordLen is consumed up to its end but only its head is returned.
// The final line may lack a newline.
func (s *ReplaySource) readLine() (string, bool, error) {
	var (
		head    []byte
		tooLong bool
	)
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(head) < maxRecordLen {
			head = append(head, chunk...)
		}
		switch {
		case err == nil:
			return string(head), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			tooLong = true
		case errors.Is(err, io.EOF):
			s.done = true
			if len(head) == 0 {
				// nothing left; counts as a blank line
				return "", false, nil
			}
			return string(head), tooLong, nil
		default:
			return "", false, fmt.Errorf("read sample log: %w", err)
		}
	}
}

func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
