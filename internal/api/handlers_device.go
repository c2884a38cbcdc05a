// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonKimbel/CatFeeder/internal/checkin"
	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/metrics"
)

// maxCheckInBody bounds the device payload. The poll message is a handful of
// bytes; anything near the limit is not the feeder.
const maxCheckInBody = 4 << 10

// DeviceCheckIn handles one poll from the embedded feeder. The request and
// response bodies are CBOR.
//
// A malformed payload gets a 400 carrying a safe default response so the
// device retries on the normal cadence instead of wedging its poll loop.
func (h *Handler) DeviceCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCheckInBody))
	if err != nil {
		metrics.CheckInProtocolErrors.Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to read device payload")
		h.writeDeviceResponse(w, http.StatusBadRequest, checkin.DefaultResponse(h.engine.CheckInInterval()))
		return
	}

	req, err := checkin.DecodeRequest(body)
	if err != nil {
		if errors.Is(err, checkin.ErrProtocol) {
			metrics.CheckInProtocolErrors.Inc()
			logging.Ctx(ctx).Warn().Err(err).Int("body_len", len(body)).Msg("Undecodable device payload")
			h.writeDeviceResponse(w, http.StatusBadRequest, checkin.DefaultResponse(h.engine.CheckInInterval()))
			return
		}
		respondError(w, http.StatusInternalServerError, "CHECKIN_FAILED", "failed to decode check-in", err)
		return
	}

	resp, err := h.coordinator.HandleCheckIn(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Check-in handling failed")
		h.writeDeviceResponse(w, http.StatusInternalServerError, checkin.DefaultResponse(h.engine.CheckInInterval()))
		return
	}

	h.writeDeviceResponse(w, http.StatusOK, resp)
}

// writeDeviceResponse serializes a poll answer for the device.
func (h *Handler) writeDeviceResponse(w http.ResponseWriter, status int, resp checkin.Response) {
	data, err := resp.Encode()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode check-in response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write check-in response")
	}
}
