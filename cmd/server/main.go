// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package main is the entry point for the CatFeeder control service.
//
// CatFeeder is the server half of a two-piece pet feeder: an embedded
// device dispenses food and polls this service over HTTP for instructions,
// while the service owns the feeding schedule, the feed-now override, and
// the feeding history. The device keeps no schedule of its own; every poll
// answer tells it when to feed next, how many scoops, and when to call back.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Storage: BadgerDB holding the single preference record
//  3. Schedule engine: pure feeding-time computation from the slot table
//  4. Outage watchdog: alerts when the device misses its check-in deadline
//  5. HTTP server: CBOR device endpoint plus JSON preference endpoints
//
// Everything long-running sits under a suture supervisor tree, so a crash
// in the watchdog or the HTTP server restarts that component without
// taking the process down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults.
//
// Common settings:
//   - HTTP_PORT: listen port (default: 8080)
//   - FEEDER_TIMEZONE: IANA zone for slot expansion (default: US/Pacific)
//   - FEEDER_MORNING_SLOTS / FEEDER_EVENING_SLOTS: minutes into the day
//   - STORAGE_PATH: BadgerDB directory (default: /data/catfeeder)
//   - ALERT_WEBHOOK_URL: optional POST target for outage alerts
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests within the shutdown timeout, then the Badger
// database is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonKimbel/CatFeeder/internal/alert"
	"github.com/JonKimbel/CatFeeder/internal/api"
	"github.com/JonKimbel/CatFeeder/internal/checkin"
	"github.com/JonKimbel/CatFeeder/internal/clock"
	"github.com/JonKimbel/CatFeeder/internal/config"
	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
	"github.com/JonKimbel/CatFeeder/internal/schedule"
	"github.com/JonKimbel/CatFeeder/internal/supervisor"
	"github.com/JonKimbel/CatFeeder/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("timezone", cfg.Feeder.Timezone).
		Ints("morning_slots", cfg.Feeder.MorningSlots).
		Ints("evening_slots", cfg.Feeder.EveningSlots).
		Str("storage_path", cfg.Storage.Path).
		Bool("webhook_alerts", cfg.Alert.WebhookURL != "").
		Msg("Configuration loaded")

	db, err := prefs.OpenDB(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open preference storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing preference storage")
		}
	}()

	store := prefs.NewStore(db)
	clk := clock.System{}

	engine, err := schedule.NewEngine(cfg.Feeder)
	if err != nil {
		// Close the database before the fatal exit; deferred closes do not
		// run past os.Exit.
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing preference storage")
		}
		logging.Fatal().Err(err).Msg("Failed to build schedule engine")
	}

	var notifier alert.Notifier
	if cfg.Alert.WebhookURL != "" {
		notifier = alert.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.Timeout)
	}

	snapshot := store.Snapshot()
	watchdog := alert.NewWatchdog(
		cfg.Feeder.CheckInInterval,
		cfg.Feeder.OfflineGrace,
		clk,
		notifier,
		snapshot.LastCheckInAt,
	)

	updater := prefs.NewUpdater(store, clk)
	coordinator := checkin.NewCoordinator(store, engine, clk, watchdog)

	handler := api.NewHandler(store, updater, coordinator, engine, clk, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMonitorService(watchdog)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting CatFeeder control service")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel; the supervisor closes it when fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("CatFeeder stopped gracefully")
}
