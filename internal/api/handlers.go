// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package api provides the HTTP surface of the control service: the CBOR
// device check-in endpoint the feeder polls, and the JSON preference
// endpoints humans (or a frontend) use to adjust the schedule.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, health endpoint
//   - handlers_device.go: device check-in endpoint (CBOR)
//   - handlers_prefs.go: preference read/update and feed-now (JSON)
package api

import (
	"net/http"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/checkin"
	"github.com/JonKimbel/CatFeeder/internal/clock"
	"github.com/JonKimbel/CatFeeder/internal/config"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
	"github.com/JonKimbel/CatFeeder/internal/schedule"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	store       *prefs.Store
	updater     *prefs.Updater
	coordinator *checkin.Coordinator
	engine      *schedule.Engine
	clk         clock.Clock
	cfg         *config.Config
	startTime   time.Time
}

// NewHandler creates an API handler wired to the given service components.
func NewHandler(store *prefs.Store, updater *prefs.Updater, coordinator *checkin.Coordinator, engine *schedule.Engine, clk clock.Clock, cfg *config.Config) *Handler {
	return &Handler{
		store:       store,
		updater:     updater,
		coordinator: coordinator,
		engine:      engine,
		clk:         clk,
		cfg:         cfg,
		startTime:   time.Now(),
	}
}

// Health reports service liveness plus whether the feeder itself has been
// heard from recently.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.clk.Now()
	snapshot := h.store.Snapshot()

	respondData(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"device_online":  h.engine.CheckInRecent(now, snapshot),
	})
}
