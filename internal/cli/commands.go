// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/piezo_walk/internal/app"
)

func newWalkCmd(opts *options) *cobra.Command {
	var mock bool

	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Detect steps live from the serial port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return app.RunWalk(cfg, newEnv(cmd, opts), mock)
		},
	}
	addLiveFlags(cmd, opts)
	cmd.Flags().BoolVar(&mock, "mock", false, "use a synthetic walker instead of the serial port")
	return cmd
}

func newReplayCmd(opts *options) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Detect steps in a recorded sample log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				filename = args[0]
			}
			if filename == "" {
				return errors.New("a sample log is required, pass --filename or a file argument")
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return app.RunReplay(cfg, newEnv(cmd, opts), filename)
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "name of the input file")
	return cmd
}

func newRecordCmd(opts *options) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a sample of sensor values to a log file",
		Long: `Record a sample of sensor values from the piezo board and save them with a
timestamp, one tab-separated record per line.

The serial monitor of the Arduino IDE must be closed, otherwise the port is
busy and values will be lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return app.RunRecord(cfg, newEnv(cmd, opts), filename)
		},
	}
	addLiveFlags(cmd, opts)
	cmd.Flags().StringVar(&filename, "filename", "", "name of the output file (default piezo_sensor_sample_<duration>_seconds_<time>.csv)")
	return cmd
}

func newConsoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Print walk events published over MQTT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return app.RunConsoleMQTT(cfg, newEnv(cmd, opts))
		},
	}
}

func newWebCmd(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the current walking speed over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.WebServerPort = port
			}
			return app.RunWeb(cfg, newEnv(cmd, opts))
		},
	}
	cmd.Flags().IntVar(&port, "listen", 0, "HTTP port (default 8080)")
	return cmd
}
