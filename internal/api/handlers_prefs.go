// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
	"github.com/JonKimbel/CatFeeder/internal/validation"
)

// PreferencesView is the JSON projection of the feeder state returned by the
// preference endpoints. Times are RFC3339 in UTC.
type PreferencesView struct {
	FeedSchedule     string      `json:"feed_schedule"`
	ScoopsPerFeeding int         `json:"scoops_per_feeding"`
	FeedASAP         bool        `json:"feed_asap"`
	NextFeedingAt    *time.Time  `json:"next_feeding_at,omitempty"`
	FeedingHistory   []time.Time `json:"feeding_history"`
	LastCheckInAt    *time.Time  `json:"last_check_in_at,omitempty"`
	DeviceOnline     bool        `json:"device_online"`
}

// UpdatePreferencesRequest carries user edits. Absent fields are left
// unchanged; unrecognized schedule names are rejected before they reach the
// store.
type UpdatePreferencesRequest struct {
	FeedSchedule     string `json:"feed_schedule" validate:"omitempty,oneof=never mornings mornings_and_evenings"`
	ScoopsPerFeeding *int   `json:"scoops_per_feeding" validate:"omitnil,min=1,max=10"`
}

// GetPreferences returns the current feeder state.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()
	respondData(w, http.StatusOK, h.viewOf(snapshot))
}

// UpdatePreferences applies user edits to the schedule or portion size. It
// accepts a JSON body or, for curl convenience, form/query values using the
// same field names.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseUpdateRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	edits := make(map[string]string)
	if req.FeedSchedule != "" {
		edits[prefs.FieldSchedule] = req.FeedSchedule
	}
	if req.ScoopsPerFeeding != nil {
		edits[prefs.FieldScoops] = strconv.Itoa(*req.ScoopsPerFeeding)
	}

	updated, err := h.updater.ApplyEdits(ctx, edits)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "UPDATE_FAILED", "failed to apply preference edits", err)
		return
	}

	logging.Ctx(ctx).Info().
		Str("schedule", updated.FeedingSchedule.String()).
		Int("scoops", updated.ScoopsPerFeeding).
		Msg("Preferences updated")

	respondData(w, http.StatusOK, h.viewOf(updated))
}

// FeedNow arms the feed-ASAP override. The feeder acts on it at its next poll.
func (h *Handler) FeedNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	updated, err := h.updater.RequestFeedASAP(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "UPDATE_FAILED", "failed to request feeding", err)
		return
	}

	respondData(w, http.StatusAccepted, h.viewOf(updated))
}

// viewOf projects a preference snapshot for API consumers.
func (h *Handler) viewOf(p prefs.Preferences) PreferencesView {
	now := h.clk.Now()

	view := PreferencesView{
		FeedSchedule:     p.FeedingSchedule.String(),
		ScoopsPerFeeding: p.ScoopsPerFeeding,
		FeedASAP:         p.FeedASAP,
		FeedingHistory:   make([]time.Time, 0, len(p.FeedingHistory)),
		LastCheckInAt:    p.LastCheckInAt,
		DeviceOnline:     h.engine.CheckInRecent(now, p),
	}

	for _, at := range p.FeedingHistory {
		view.FeedingHistory = append(view.FeedingHistory, at.UTC())
	}

	if next, ok := h.engine.NextFeedingTimeForDisplay(now, p); ok {
		utc := next.UTC()
		view.NextFeedingAt = &utc
	}

	return view
}

// parseUpdateRequest decodes edits from a JSON body or form values.
func parseUpdateRequest(r *http.Request) (*UpdatePreferencesRequest, error) {
	req := &UpdatePreferencesRequest{}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	req.FeedSchedule = r.Form.Get(prefs.FieldSchedule)

	// The web client submits number_of_scoops_per_feeding; the shorter JSON
	// name is accepted as an alias.
	raw := r.Form.Get(prefs.FieldScoops)
	if raw == "" {
		raw = r.Form.Get("scoops_per_feeding")
	}
	if raw != "" {
		scoops, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		req.ScoopsPerFeeding = &scoops
	}
	return req, nil
}
