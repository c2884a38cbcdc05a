// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/JonKimbel/CatFeeder/internal/logging"
)

// APIResponse is the envelope for all JSON endpoints.
type APIResponse struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Error     *APIError   `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope around the given payload.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{
		Status:    "ok",
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}
