// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonKimbel/CatFeeder/internal/config"
	"github.com/JonKimbel/CatFeeder/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router around the given handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes using the Chi router.
//
// The device check-in endpoint and the human-facing preference endpoints
// share one rate-limit bucket per client IP: a home deployment sees one
// feeder and a handful of browsers, so a single limit is enough.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Operational endpoints, no rate limit: scrapers poll these.
	r.Get("/healthz", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(
			router.cfg.Server.RateLimitReqs,
			router.cfg.Server.RateLimitWindow,
		))
		r.Use(middleware.Prometheus)

		r.Post("/device/checkin", router.handler.DeviceCheckIn)

		r.Get("/preferences", router.handler.GetPreferences)
		r.Put("/preferences", router.handler.UpdatePreferences)
		r.Post("/feed-now", router.handler.FeedNow)
	})

	return r
}
