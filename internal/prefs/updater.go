// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package prefs

import (
	"context"
	"strconv"

	"github.com/JonKimbel/CatFeeder/internal/clock"
	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/metrics"
)

// Form field names accepted by ApplyEdits. These match the names the web
// client submits.
const (
	FieldSchedule = "feed_schedule"
	FieldScoops   = "number_of_scoops_per_feeding"
)

// Updater applies user-submitted preference edits. Invalid values are
// ignored with a warning rather than failing the batch: the web client is
// trusted to mostly send sane input, and a bad field must never block the
// rest of an edit.
type Updater struct {
	store *Store
	clk   clock.Clock
}

// NewUpdater creates an updater writing through the given store.
func NewUpdater(store *Store, clk clock.Clock) *Updater {
	return &Updater{store: store, clk: clk}
}

// ApplyEdits folds a batch of form edits into one atomic persisted update
// and returns the resulting preferences.
//
// Recognized fields:
//   - feed_schedule: one of the decision-table strings; unrecognized values
//     keep the prior schedule and log a warning. LastScheduleChangeAt is
//     stamped only when the resolved value differs from the current one,
//     so no-op writes never mask the true last-change instant.
//   - number_of_scoops_per_feeding: positive integer; unparsable or < 1
//     keeps the prior value.
func (u *Updater) ApplyEdits(ctx context.Context, edits map[string]string) (Preferences, error) {
	return u.store.Update(func(p *Preferences) error {
		u.applySchedule(ctx, p, edits)
		u.applyScoops(ctx, p, edits)
		return nil
	})
}

// RequestFeedASAP sets the one-shot feed-ASAP override. It stays set until
// a device check-in reports the feeding it triggered.
func (u *Updater) RequestFeedASAP(ctx context.Context) (Preferences, error) {
	updated, err := u.store.Update(func(p *Preferences) error {
		p.FeedASAP = true
		return nil
	})
	if err == nil {
		metrics.FeedASAPRequests.Inc()
		logging.Ctx(ctx).Info().Msg("Feed-ASAP override requested")
	}
	return updated, err
}

func (u *Updater) applySchedule(ctx context.Context, p *Preferences, edits map[string]string) {
	value, ok := edits[FieldSchedule]
	if !ok {
		return
	}

	schedule, recognized := ScheduleFromString(value)
	if !recognized {
		logging.Ctx(ctx).Warn().
			Str("field", FieldSchedule).
			Str("value", value).
			Msg("Unrecognized feeding schedule, keeping prior value")
		return
	}

	if p.FeedingSchedule == schedule {
		return
	}

	now := u.clk.Now()
	p.FeedingSchedule = schedule
	p.LastScheduleChangeAt = &now
	logging.Ctx(ctx).Info().
		Str("schedule", schedule.String()).
		Msg("Feeding schedule changed")
}

func (u *Updater) applyScoops(ctx context.Context, p *Preferences, edits map[string]string) {
	value, ok := edits[FieldScoops]
	if !ok {
		return
	}

	scoops, err := strconv.Atoi(value)
	if err != nil || scoops < 1 {
		logging.Ctx(ctx).Warn().
			Str("field", FieldScoops).
			Str("value", value).
			Msg("Invalid scoop count, keeping prior value")
		return
	}

	p.ScoopsPerFeeding = scoops
}
