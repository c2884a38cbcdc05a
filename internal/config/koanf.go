// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/catfeeder/config.yaml",
	"/etc/catfeeder/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Feeder: FeederConfig{
			Timezone:        "US/Pacific",
			MorningSlots:    []int{6 * 60},  // 6:00 AM
			EveningSlots:    []int{18 * 60}, // 6:00 PM
			CheckInInterval: 10 * time.Minute,
			SkewTolerance:   30 * time.Second,
			MinScoops:       1,
			OfflineGrace:    time.Minute,
		},
		Storage: StorageConfig{
			Path:     "/data/catfeeder",
			InMemory: false,
		},
		Alert: AlertConfig{
			WebhookURL: "",
			Timeout:    10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// loadWithKoanf loads configuration using Koanf v2 with layered sources.
// Precedence: ENV > file > defaults.
func loadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// HTTP_PORT -> server.port, FEEDER_TIMEZONE -> feeder.timezone, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return empty string and are skipped, which prevents
// unrelated environment variables from polluting the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_timeout":          "server.timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"rate_limit_requests":   "server.rate_limit_reqs",
		"rate_limit_window":     "server.rate_limit_window",

		// Feeder mappings
		"feeder_timezone":         "feeder.timezone",
		"feeder_morning_slots":    "feeder.morning_slots",
		"feeder_evening_slots":    "feeder.evening_slots",
		"feeder_checkin_interval": "feeder.checkin_interval",
		"feeder_skew_tolerance":   "feeder.skew_tolerance",
		"feeder_min_scoops":       "feeder.min_scoops",
		"feeder_offline_grace":    "feeder.offline_grace",

		// Storage mappings
		"storage_path":      "storage.path",
		"storage_in_memory": "storage.in_memory",

		// Alert mappings
		"alert_webhook_url": "alert.webhook_url",
		"alert_timeout":     "alert.timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
