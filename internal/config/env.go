// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces the environment overrides, e.g. PIEZO_STEP_THRESHOLD.
const EnvPrefix = "PIEZO"

// ApplyEnv overrides c with PIEZO_* environment variables. A .env file in
// the working directory is loaded first if present; variables already set in
// the environment win over it.
func (c *Config) ApplyEnv() error {
	// a missing .env is the normal case
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}
