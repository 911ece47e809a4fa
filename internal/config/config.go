// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/piezo_walk/internal/piezo"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

// DefaultPath is read when it exists and no other file is given.
const DefaultPath = "piezo_config.txt"

// Config holds all application configuration values. Environment overrides
// use PIEZO_ plus the field name split into words, e.g. PIEZO_READ_TIMEOUT_MS.
type Config struct {
	// Serial
	SerialPorts   []string `split_words:"true"`
	BaudRate      int      `split_words:"true"`
	ReadTimeoutMS int      `split_words:"true"`
	SettleDelayMS int      `split_words:"true"` // wait after opening, the board resets

	// Detection
	StepThreshold   int    `split_words:"true"`
	NoStepThreshold int    `split_words:"true"`
	TimeWindow      int    `split_words:"true"` // seconds
	ReportMode      string `split_words:"true"` // "speed" or "steps"

	// Session
	Duration int `split_words:"true"` // seconds, live sessions only

	// MQTT (optional, events are only published when a broker is set)
	MQTTBroker   string `split_words:"true"`
	MQTTClientID string `split_words:"true"`

	// Topics
	TopicStep    string `split_words:"true"`
	TopicSpeed   string `split_words:"true"`
	TopicStopped string `split_words:"true"`

	// Web Server
	WebServerPort int `split_words:"true"`
}

// Default returns the settings the board was tuned with.
func Default() *Config {
	return &Config{
		SerialPorts:     append([]string(nil), piezo.DefaultPorts...),
		BaudRate:        piezo.DefaultBaudRate,
		ReadTimeoutMS:   int(piezo.DefaultReadTimeout / time.Millisecond),
		SettleDelayMS:   int(piezo.DefaultSettleDelay / time.Millisecond),
		StepThreshold:   500,
		NoStepThreshold: 200,
		TimeWindow:      3,
		ReportMode:      walk.SpeedSeries.String(),
		Duration:        30,
		MQTTClientID:    "piezo-walk",
		TopicStep:       "piezo/step",
		TopicSpeed:      "piezo/speed",
		TopicStopped:    "piezo/stopped",
		WebServerPort:   8080,
	}
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile applies KEY=VALUE lines from configPath to c. Blank lines and
// lines starting with '#' are ignored; unknown keys are an error.
func (c *Config) LoadFile(configPath string) error {
	file, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial
	case "SERIAL_PORTS":
		var ports []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ports = append(ports, p)
			}
		}
		c.SerialPorts = ports
	case "BAUD_RATE":
		return setInt(&c.BaudRate, key, value)
	case "READ_TIMEOUT_MS":
		return setInt(&c.ReadTimeoutMS, key, value)
	case "SETTLE_DELAY_MS":
		return setInt(&c.SettleDelayMS, key, value)

	// Detection
	case "STEP_THRESHOLD":
		return setInt(&c.StepThreshold, key, value)
	case "NO_STEP_THRESHOLD":
		return setInt(&c.NoStepThreshold, key, value)
	case "TIME_WINDOW":
		return setInt(&c.TimeWindow, key, value)
	case "REPORT_MODE":
		if _, err := walk.ParseReportMode(value); err != nil {
			return fmt.Errorf("invalid REPORT_MODE: %w", err)
		}
		c.ReportMode = value

	// Session
	case "DURATION":
		return setInt(&c.Duration, key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value

	// Topics
	case "TOPIC_STEP":
		c.TopicStep = value
	case "TOPIC_SPEED":
		c.TopicSpeed = value
	case "TOPIC_STOPPED":
		c.TopicStopped = value

	// Web Server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.SerialPorts) == 0 {
		return fmt.Errorf("SERIAL_PORTS is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("BAUD_RATE must be positive, got %d", c.BaudRate)
	}
	if c.ReadTimeoutMS <= 0 {
		return fmt.Errorf("READ_TIMEOUT_MS must be positive, got %d", c.ReadTimeoutMS)
	}
	if c.SettleDelayMS < 0 {
		return fmt.Errorf("SETTLE_DELAY_MS must not be negative, got %d", c.SettleDelayMS)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("DURATION must be positive, got %d", c.Duration)
	}
	if c.MQTTBroker != "" && c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required when MQTT_BROKER is set")
	}
	if _, err := c.WalkConfig(); err != nil {
		return err
	}
	return nil
}

// WalkConfig returns the detector parameters.
func (c *Config) WalkConfig() (walk.Config, error) {
	mode, err := walk.ParseReportMode(c.ReportMode)
	if err != nil {
		return walk.Config{}, err
	}
	wc := walk.Config{
		StepThreshold:   c.StepThreshold,
		NoStepThreshold: c.NoStepThreshold,
		Window:          time.Duration(c.TimeWindow) * time.Second,
		Mode:            mode,
	}
	return wc, wc.Validate()
}

// LiveConfig returns the serial source settings for a live session.
func (c *Config) LiveConfig(logger *slog.Logger) piezo.LiveConfig {
	return piezo.LiveConfig{
		Ports:       append([]string(nil), c.SerialPorts...),
		BaudRate:    c.BaudRate,
		ReadTimeout: time.Duration(c.ReadTimeoutMS) * time.Millisecond,
		SettleDelay: time.Duration(c.SettleDelayMS) * time.Millisecond,
		Duration:    c.SessionDuration(),
		Logger:      logger,
	}
}

// SessionDuration is Duration as a time.Duration.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.Duration) * time.Second
}
