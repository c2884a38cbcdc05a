// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package config provides centralized configuration for the CatFeeder
// control service, loaded via Koanf v2 with layered sources:
//
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting (highest priority)
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Feeder  FeederConfig  `koanf:"feeder"`
	Storage StorageConfig `koanf:"storage"`
	Alert   AlertConfig   `koanf:"alert"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: listen address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 8080)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`

	// Rate limiting for the device check-in endpoint. The feeder polls on
	// a ten-minute cadence; anything past the limit is a misbehaving client.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
}

// FeederConfig holds the feeding schedule parameters consumed by the
// schedule engine and check-in coordinator.
//
// Slots are minutes into the day in the configured time zone, so 360 is
// 6:00 AM and 1080 is 6:00 PM.
//
// Environment Variables:
//   - FEEDER_TIMEZONE: IANA zone for slot expansion (default: US/Pacific)
//   - FEEDER_MORNING_SLOTS: comma-separated minutes into day (default: 360)
//   - FEEDER_EVENING_SLOTS: comma-separated minutes into day (default: 1080)
//   - FEEDER_CHECKIN_INTERVAL: device poll cadence (default: 10m)
//   - FEEDER_SKEW_TOLERANCE: device clock drift window (default: 30s)
//   - FEEDER_MIN_SCOOPS: floor for scoops per feeding (default: 1)
//   - FEEDER_OFFLINE_GRACE: slack past a missed check-in before the
//     outage watchdog alerts (default: 60s)
type FeederConfig struct {
	Timezone        string        `koanf:"timezone" validate:"required"`
	MorningSlots    []int         `koanf:"morning_slots" validate:"min=1,dive,min=0,max=1439"`
	EveningSlots    []int         `koanf:"evening_slots" validate:"min=1,dive,min=0,max=1439"`
	CheckInInterval time.Duration `koanf:"checkin_interval" validate:"min=1m"`
	SkewTolerance   time.Duration `koanf:"skew_tolerance" validate:"min=1s"`
	MinScoops       int           `koanf:"min_scoops" validate:"min=1"`
	OfflineGrace    time.Duration `koanf:"offline_grace" validate:"min=1s"`
}

// StorageConfig holds preference persistence settings.
//
// Environment Variables:
//   - STORAGE_PATH: BadgerDB directory (default: /data/catfeeder)
//   - STORAGE_IN_MEMORY: run Badger without disk persistence, for
//     development and tests (default: false)
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// AlertConfig holds outage notification settings. When WebhookURL is empty
// the watchdog only logs; no alerts leave the process.
//
// Environment Variables:
//   - ALERT_WEBHOOK_URL: POST target for outage notifications
//   - ALERT_TIMEOUT: webhook request timeout (default: 10s)
type AlertConfig struct {
	WebhookURL string        `koanf:"webhook_url" validate:"omitempty,http_url"`
	Timeout    time.Duration `koanf:"timeout" validate:"min=1s"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that the configuration is internally consistent.
// Struct tags cover ranges; the checks below cover relationships between
// fields that tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if _, err := time.LoadLocation(c.Feeder.Timezone); err != nil {
		return fmt.Errorf("FEEDER_TIMEZONE %q is not a valid IANA zone: %w", c.Feeder.Timezone, err)
	}

	// A skew tolerance wider than the poll cadence would let the engine
	// skip slots the device never fed.
	if c.Feeder.SkewTolerance >= c.Feeder.CheckInInterval {
		return fmt.Errorf("FEEDER_SKEW_TOLERANCE (%s) must be smaller than FEEDER_CHECKIN_INTERVAL (%s)",
			c.Feeder.SkewTolerance, c.Feeder.CheckInInterval)
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required unless STORAGE_IN_MEMORY=true")
	}

	return nil
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	return loadWithKoanf()
}
