// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryAverageSpeed(t *testing.T) {
	avg, err := Summary{Speeds: []int{20, 0, 20, 40}}.AverageSpeed()
	require.NoError(t, err)
	assert.InDelta(t, 20.0, avg, 1e-9)
}

func TestSummaryAverageSpeedNoData(t *testing.T) {
	avg, err := Summary{Steps: 3}.AverageSpeed()
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, avg)
}

func TestDetectorSummaryIsACopy(t *testing.T) {
	d := newDetector(t, SpeedSeries)
	feed(t, d, sampleAt(1.2, 100))

	sum := d.Summary()
	sum.Speeds[0] = 999
	assert.Equal(t, []int{0}, d.Summary().Speeds)
}
