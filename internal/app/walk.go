// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/piezo"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

// The synthetic walker used by RunWalk with mock input: 100 steps per
// minute, standing still for 3 s after every 8 s of walking.
const (
	mockCadence = 100
	mockWalkFor = 8 * time.Second
	mockPause   = 3 * time.Second
)

// RunWalk detects steps from the live sensor for cfg.Duration seconds. With
// mock set it uses a synthetic gait instead of the serial port.
func RunWalk(cfg *config.Config, env Env, mock bool) error {
	env = env.withDefaults()

	var src piezo.Source
	if mock {
		env.Logger.Info("using mock piezo source", "cadence", mockCadence)
		src = piezo.NewMockSource(piezo.MockConfig{
			Cadence:  mockCadence,
			Rate:     100,
			Duration: cfg.SessionDuration(),
			WalkFor:  mockWalkFor,
			Pause:    mockPause,
		})
	} else {
		live, err := piezo.OpenLive(cfg.LiveConfig(env.Logger))
		if err != nil {
			return err
		}
		defer live.Close()
		src = live
		env.Logger.Info("ready to detect steps", "port", live.Port(), "duration", cfg.SessionDuration())
	}

	return runSession(cfg, env, src)
}

// RunReplay runs the detector over a recorded sample log.
func RunReplay(cfg *config.Config, env Env, path string) error {
	env = env.withDefaults()

	src, err := piezo.OpenReplay(path)
	if err != nil {
		return err
	}
	defer src.Close()
	env.Logger.Debug("replaying sample log", "file", path)

	return runSession(cfg, env, src)
}

func runSession(cfg *config.Config, env Env, src piezo.Source) error {
	wc, err := cfg.WalkConfig()
	if err != nil {
		return err
	}
	det, err := walk.New(wc)
	if err != nil {
		return err
	}

	sink := walk.MultiSink{walk.NewConsoleSink(env.Stdout)}
	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return fmt.Errorf("MQTT connect: %w", err)
		}
		defer client.Disconnect(250)
		env.Logger.Info("publishing walk events", "broker", cfg.MQTTBroker)
		sink = append(sink, NewMQTTSink(client, topicsFrom(cfg)))
	}

	res, err := walk.Run(src, det, sink, env.Logger)
	if err != nil {
		return err
	}

	env.Logger.Info("session finished", "samples", res.Samples, "skipped", res.Skipped, "steps", res.Summary.Steps)
	return printSummary(env.Stdout, wc.Mode, res.Summary, env.Logger)
}

// printSummary writes the end-of-session report. In speed mode it lists
// every speed sample followed by the average; with no samples the average
// is reported as "no data".
func printSummary(w io.Writer, mode walk.ReportMode, sum walk.Summary, log *slog.Logger) error {
	fmt.Fprintln(w, "Walk Detection finished!")

	if mode == walk.StepEvents {
		_, err := fmt.Fprintf(w, "Steps: %d\n", sum.Steps)
		return err
	}

	fmt.Fprintln(w, "\nMeasured speeds:")
	for _, s := range sum.Speeds {
		fmt.Fprintln(w, s)
	}

	avg, err := sum.AverageSpeed()
	if errors.Is(err, walk.ErrNoData) {
		log.Warn("no speed samples collected, average speed is undefined")
		_, err = fmt.Fprintln(w, "Average speed: no data")
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Average speed: %d\n", int(avg))
	return err
}
