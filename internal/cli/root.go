// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/piezo_walk/internal/app"
	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

// Version is set at build time via ldflags.
var Version = "dev"

// options holds the flags shared by all subcommands.
type options struct {
	configPath string
	verbose    bool

	step       int
	noStep     int
	timeWindow int
	duration   int
	onlySteps  bool
	ports      []string
	mqttBroker string
}

// NewRootCmd builds the piezo command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "piezo",
		Short: "Step detection and walking speed from a foot-mounted piezo sensor",
		Long: `piezo reads values from an Arduino with a piezo sensor, either live over
the serial port or from a recorded sample log, and reports steps or the
walking speed in steps per minute.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("piezo version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "KEY=VALUE config file (default "+config.DefaultPath+" if present)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.IntVar(&opts.step, "step", 0, "threshold value to start a new step (default 500)")
	pf.IntVar(&opts.noStep, "nostep", 0, "threshold value to stop a started step (default 200)")
	pf.IntVar(&opts.timeWindow, "timewindow", 0, "time window in seconds to calculate the speed (default 3)")
	pf.BoolVar(&opts.onlySteps, "onlysteps", false, "only count the number of steps, do not print the speed")
	pf.StringVar(&opts.mqttBroker, "mqtt-broker", "", "also publish events to this MQTT broker, e.g. tcp://localhost:1883")

	root.AddCommand(
		newWalkCmd(opts),
		newReplayCmd(opts),
		newRecordCmd(opts),
		newConsoleCmd(opts),
		newWebCmd(opts),
	)
	return root
}

// Execute runs the root command. Errors are printed to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// addLiveFlags registers the flags of commands that read the serial port.
func addLiveFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVar(&opts.duration, "duration", 0, "duration of the session in seconds (default 30)")
	cmd.Flags().StringSliceVar(&opts.ports, "port", nil, "serial port to try, in order (repeatable)")
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()

	switch {
	case opts.configPath != "":
		if err := cfg.LoadFile(opts.configPath); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat(config.DefaultPath); err == nil {
			if err := cfg.LoadFile(config.DefaultPath); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("step") {
		cfg.StepThreshold = opts.step
	}
	if flags.Changed("nostep") {
		cfg.NoStepThreshold = opts.noStep
	}
	if flags.Changed("timewindow") {
		cfg.TimeWindow = opts.timeWindow
	}
	if flags.Changed("duration") {
		cfg.Duration = opts.duration
	}
	if flags.Changed("port") {
		cfg.SerialPorts = opts.ports
	}
	if flags.Changed("mqtt-broker") {
		cfg.MQTTBroker = opts.mqttBroker
	}
	if opts.onlySteps {
		cfg.ReportMode = walk.StepEvents.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newEnv(cmd *cobra.Command, opts *options) app.Env {
	return app.Env{
		Stdout:  cmd.OutOrStdout(),
		Logger:  app.NewLogger(cmd.ErrOrStderr(), opts.verbose),
		Verbose: opts.verbose,
	}
}
