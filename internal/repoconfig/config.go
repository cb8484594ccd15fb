// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package repoconfig loads the repository server's configuration from
// a YAML file and environment variables (REPO__DIRECTORY,
// ALLOWEDMETHODS__*, RETENTION__*, LISTEN__PORT). Defaults are
// established first, the YAML file (if any) is applied next, and
// environment variables are applied last and always win, since
// operators running the server under an orchestrator treat environment
// variables as the primary configuration interface.
package repoconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllowedMethods gates which HTTP verbs the request handlers accept.
type AllowedMethods struct {
	Get    bool `yaml:"get"`
	Post   bool `yaml:"post"`
	Delete bool `yaml:"delete"`
}

// Retention configures the background GC sweeper's pruning policy.
type Retention struct {
	MaxVersions int `yaml:"maxVersions"`
	MaxAgeDays  int `yaml:"maxAgeDays"`
}

// Listen configures the HTTP bind address.
type Listen struct {
	Port int `yaml:"port"`
}

// Config is the repository server's complete configuration.
type Config struct {
	Directory      string         `yaml:"directory"`
	AllowedMethods AllowedMethods `yaml:"allowedMethods"`
	Retention      Retention      `yaml:"retention"`
	Listen         Listen         `yaml:"listen"`
}

// Default returns the baseline configuration before a file or
// environment variables are applied.
func Default() Config {
	return Config{
		AllowedMethods: AllowedMethods{Get: true, Post: false, Delete: false},
		Listen:         Listen{Port: 8080},
	}
}

// Load builds a Config: defaults, then configPath's YAML contents (if
// configPath is non-empty), then environment variable overrides. Returns an error if Directory ends up unset — it has no
// default.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	applyEnvironmentOverrides(&cfg)

	if cfg.Directory == "" {
		return Config{}, fmt.Errorf("repoconfig: REPO__DIRECTORY (or directory in the config file) is required")
	}

	return cfg, nil
}

// applyEnvironmentOverrides reads the configuration environment
// variables and overwrites the corresponding field whenever the
// variable is set, regardless of what the config file contained.
func applyEnvironmentOverrides(cfg *Config) {
	if v, ok := lookupEnv("REPO__DIRECTORY"); ok {
		cfg.Directory = v
	}
	if v, ok := lookupBoolEnv("ALLOWEDMETHODS__GET"); ok {
		cfg.AllowedMethods.Get = v
	}
	if v, ok := lookupBoolEnv("ALLOWEDMETHODS__POST"); ok {
		cfg.AllowedMethods.Post = v
	}
	if v, ok := lookupBoolEnv("ALLOWEDMETHODS__DELETE"); ok {
		cfg.AllowedMethods.Delete = v
	}
	if v, ok := lookupIntEnv("RETENTION__MAXVERSIONS"); ok {
		cfg.Retention.MaxVersions = v
	}
	if v, ok := lookupIntEnv("RETENTION__MAXAGEDAYS"); ok {
		cfg.Retention.MaxAgeDays = v
	}
	if v, ok := lookupIntEnv("LISTEN__PORT"); ok {
		cfg.Listen.Port = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func lookupBoolEnv(key string) (bool, bool) {
	v, ok := lookupEnv(key)
	if !ok || v == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}

func lookupIntEnv(key string) (int, bool) {
	v, ok := lookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
