// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package middleware provides HTTP middleware: request ID propagation and
// Prometheus request instrumentation.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonKimbel/CatFeeder/internal/logging"
)

// RequestID middleware assigns each request a unique ID, exposed in the
// X-Request-ID response header and propagated through the context for
// structured logging. IDs supplied by an upstream proxy are preserved.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
