// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package walk

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/piezo_walk/internal/piezo"
)

func newDetector(t *testing.T, mode ReportMode) *Detector {
	t.Helper()
	d, err := New(Config{StepThreshold: 500, NoStepThreshold: 200, Window: 3 * time.Second, Mode: mode})
	require.NoError(t, err)
	return d
}

func feed(t *testing.T, d *Detector, samples ...piezo.Sample) []Event {
	t.Helper()
	var all []Event
	for _, s := range samples {
		events, err := d.Process(s)
		require.NoError(t, err)
		all = append(all, events...)
	}
	return all
}

func kinds(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestDetectorWalkScenario(t *testing.T) {
	d := newDetector(t, StepEvents)

	events := feed(t, d,
		piezo.Sample{Timestamp: 0.0, Value: 100},
		piezo.Sample{Timestamp: 0.5, Value: 600},
		piezo.Sample{Timestamp: 1.0, Value: 150},
		piezo.Sample{Timestamp: 4.5, Value: 600},
		piezo.Sample{Timestamp: 5.0, Value: 150},
	)

	assert.Equal(t, []Event{{Kind: Step, Timestamp: 0.5}, {Kind: Step, Timestamp: 4.5}}, kinds(events, Step))
	assert.Equal(t, []float64{4.5}, d.RecentSteps())
	assert.False(t, d.StepOn())

	sum := d.Summary()
	assert.Equal(t, 2, sum.Steps)
	assert.Equal(t, []int{20, 0, 20}, sum.Speeds)
}

func TestDetectorSpeedSeriesScenario(t *testing.T) {
	d := newDetector(t, SpeedSeries)

	events := feed(t, d,
		piezo.Sample{Timestamp: 0.0, Value: 100},
		piezo.Sample{Timestamp: 0.5, Value: 600},
		piezo.Sample{Timestamp: 1.0, Value: 150},
		piezo.Sample{Timestamp: 4.5, Value: 600},
		piezo.Sample{Timestamp: 5.0, Value: 150},
	)

	assert.Equal(t, []Event{
		{Kind: Speed, Timestamp: 1.0, StepsPerMinute: 20},
		{Kind: Stopped, Timestamp: 4.5},
		{Kind: Speed, Timestamp: 4.5, StepsPerMinute: 0},
		{Kind: Speed, Timestamp: 5.0, StepsPerMinute: 20},
	}, events)
}

func TestDetectorHysteresis(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		steps  int
	}{
		{"single crossing", []int{100, 600, 100}, 1},
		{"chatter inside band", []int{100, 600, 450, 550, 300, 520, 100}, 1},
		{"reset at exactly no-step threshold", []int{100, 500, 200, 500}, 2},
		{"never below no-step threshold", []int{600, 201, 600, 201, 600}, 1},
		{"starts high", []int{700, 700, 700}, 1},
		{"never reaches threshold", []int{100, 499, 300, 499}, 0},
		{"falling edges do not count", []int{600, 100, 100, 100}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(t, StepEvents)
			var events []Event
			for i, v := range tt.values {
				events = append(events, feed(t, d, piezo.Sample{Timestamp: 0.1 * float64(i+1), Value: v})...)
			}
			assert.Len(t, kinds(events, Step), tt.steps)
			assert.Equal(t, tt.steps, d.Summary().Steps)
		})
	}
}

// Random walks must respect the window and hysteresis rules whatever the
// sample spacing.
func TestDetectorInvariantsRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		window := time.Duration(1+rng.Intn(5)) * time.Second
		d, err := New(Config{StepThreshold: 500, NoStepThreshold: 200, Window: window, Mode: StepEvents})
		require.NoError(t, err)

		ts := 0.0
		lowSinceStep := true
		for i := 0; i < 2000; i++ {
			ts += 0.001 + rng.Float64()*0.8
			v := rng.Intn(1024)

			events, err := d.Process(piezo.Sample{Timestamp: ts, Value: v})
			require.NoError(t, err)

			for _, e := range kinds(events, Step) {
				require.True(t, lowSinceStep, "step at %.4f without dropping to the no-step threshold", e.Timestamp)
				require.GreaterOrEqual(t, v, 500)
				lowSinceStep = false
			}
			if v <= 200 {
				lowSinceStep = true
			}

			for _, step := range d.RecentSteps() {
				require.Less(t, ts-step, window.Seconds(), "stale step %.4f at %.4f", step, ts)
			}
		}
	}
}

func TestDetectorPurgeIsIdempotent(t *testing.T) {
	d := newDetector(t, SpeedSeries)
	feed(t, d,
		piezo.Sample{Timestamp: 0.2, Value: 600},
		piezo.Sample{Timestamp: 0.4, Value: 100},
		piezo.Sample{Timestamp: 2.1, Value: 600},
		piezo.Sample{Timestamp: 2.3, Value: 100},
	)

	d.recompute(3.5)
	first := d.RecentSteps()
	d.recompute(3.5)
	assert.Equal(t, first, d.RecentSteps())
	assert.Equal(t, []float64{2.1}, first)

	d.purge(3.9)
	d.purge(3.9)
	assert.Equal(t, []float64{2.1}, d.RecentSteps())
}

func TestDetectorSpeedUsesWindowWidth(t *testing.T) {
	d, err := New(Config{StepThreshold: 500, NoStepThreshold: 200, Window: 7 * time.Second, Mode: SpeedSeries})
	require.NoError(t, err)

	events := feed(t, d,
		piezo.Sample{Timestamp: 0.1, Value: 600},
		piezo.Sample{Timestamp: 0.2, Value: 100},
		piezo.Sample{Timestamp: 0.3, Value: 600},
		piezo.Sample{Timestamp: 0.4, Value: 100},
		piezo.Sample{Timestamp: 1.0, Value: 100},
	)

	// 2 steps * 60/7 = 17.14
	assert.Equal(t, []Event{{Kind: Speed, Timestamp: 1.0, StepsPerMinute: 17}}, events)
}

func TestDetectorSpeedIsExactForWholeRates(t *testing.T) {
	tests := []struct {
		window int
		steps  int
		want   int
	}{
		{3, 1, 20},
		{7, 2, 17},
		{11, 11, 60},
		{13, 13, 60},
		{26, 13, 30},
		{44, 11, 15},
		{52, 13, 15},
		{55, 11, 12},
	}

	for _, tt := range tests {
		d, err := New(Config{StepThreshold: 500, NoStepThreshold: 200, Window: time.Duration(tt.window) * time.Second, Mode: SpeedSeries})
		require.NoError(t, err)

		var samples []piezo.Sample
		for i := 0; i < 2*tt.steps; i++ {
			v := 600
			if i%2 == 1 {
				v = 100
			}
			samples = append(samples, piezo.Sample{Timestamp: 0.02 + 0.03*float64(i), Value: v})
		}
		samples = append(samples, piezo.Sample{Timestamp: 1.0, Value: 100})

		events := feed(t, d, samples...)
		assert.Equal(t, []Event{{Kind: Speed, Timestamp: 1.0, StepsPerMinute: tt.want}}, events,
			"window=%d steps=%d", tt.window, tt.steps)
	}
}

func TestDetectorSparseSamplesReportOncePerSample(t *testing.T) {
	d := newDetector(t, SpeedSeries)

	// Jumping several seconds at once still yields a single speed sample.
	events := feed(t, d,
		piezo.Sample{Timestamp: 0.5, Value: 100},
		piezo.Sample{Timestamp: 6.2, Value: 100},
	)
	assert.Len(t, kinds(events, Speed), 1)

	// Several samples inside one second yield none.
	events = feed(t, d,
		piezo.Sample{Timestamp: 6.4, Value: 100},
		piezo.Sample{Timestamp: 6.9, Value: 100},
	)
	assert.Empty(t, kinds(events, Speed))
}

func TestDetectorStoppedIsObservationOnly(t *testing.T) {
	d := newDetector(t, StepEvents)

	events := feed(t, d,
		piezo.Sample{Timestamp: 0.1, Value: 600},
		piezo.Sample{Timestamp: 2.5, Value: 450},
	)

	assert.Equal(t, []Event{{Kind: Step, Timestamp: 0.1}, {Kind: Stopped, Timestamp: 2.5}}, events)
	assert.True(t, d.StepOn(), "stop observation must not end the step")
	assert.Equal(t, []float64{0.1}, d.RecentSteps())
}

func TestDetectorRejectsNonIncreasingTimestamps(t *testing.T) {
	d := newDetector(t, StepEvents)
	feed(t, d, piezo.Sample{Timestamp: 1.0, Value: 100})

	_, err := d.Process(piezo.Sample{Timestamp: 1.0, Value: 600})
	assert.ErrorIs(t, err, ErrNonMonotonic)

	_, err = d.Process(piezo.Sample{Timestamp: 0.5, Value: 600})
	assert.ErrorIs(t, err, ErrNonMonotonic)

	assert.False(t, d.StepOn())
	assert.Zero(t, d.Summary().Steps)

	events := feed(t, d, piezo.Sample{Timestamp: 1.1, Value: 600})
	assert.Len(t, kinds(events, Step), 1)
}

func TestDetectorAcceptsFirstSampleAtZero(t *testing.T) {
	d := newDetector(t, StepEvents)
	events := feed(t, d, piezo.Sample{Timestamp: 0, Value: 600})
	assert.Equal(t, []Event{{Kind: Step, Timestamp: 0}}, events)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{StepThreshold: 500, NoStepThreshold: 200, Window: 3 * time.Second}, false},
		{"equal thresholds", Config{StepThreshold: 300, NoStepThreshold: 300, Window: time.Second, Mode: StepEvents}, false},
		{"inverted thresholds", Config{StepThreshold: 200, NoStepThreshold: 500, Window: time.Second}, true},
		{"zero window", Config{StepThreshold: 500, NoStepThreshold: 200}, true},
		{"negative window", Config{StepThreshold: 500, NoStepThreshold: 200, Window: -time.Second}, true},
		{"unknown mode", Config{StepThreshold: 500, NoStepThreshold: 200, Window: time.Second, Mode: 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseReportMode(t *testing.T) {
	m, err := ParseReportMode("steps")
	require.NoError(t, err)
	assert.Equal(t, StepEvents, m)

	m, err = ParseReportMode(" Speed ")
	require.NoError(t, err)
	assert.Equal(t, SpeedSeries, m)

	_, err = ParseReportMode("cadence")
	assert.Error(t, err)
}
