// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"errors"

	"github.com/montanaflynn/stats"
)

// ErrNoData means the session ended before any speed sample was taken.
var ErrNoData = errors.New("no speed samples recorded")

// Summary is the end-of-session report.
type Summary struct {
	Steps  int   `json:"steps"`
	Speeds []int `json:"speeds"`
}

// AverageSpeed returns the mean of the speed samples in steps per minute,
// or ErrNoData if there are none.
func (s Summary) AverageSpeed() (float64, error) {
	if len(s.Speeds) == 0 {
		return 0, ErrNoData
	}
	return stats.LoadRawData(s.Speeds).Mean()
}
