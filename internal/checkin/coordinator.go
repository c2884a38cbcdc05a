// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package checkin

import (
	"context"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/clock"
	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/metrics"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
	"github.com/JonKimbel/CatFeeder/internal/schedule"
)

// Watchdog is notified on every successful poll so the outage monitor can
// re-arm its missed-check-in deadline.
type Watchdog interface {
	NoteCheckIn(at time.Time)
}

// Coordinator orchestrates one device poll: it records the reported feeding
// into history, resolves the feed-ASAP override, asks the schedule engine
// for timing, and produces the response payload.
type Coordinator struct {
	store    *prefs.Store
	engine   *schedule.Engine
	clk      clock.Clock
	watchdog Watchdog // optional
}

// NewCoordinator creates a check-in coordinator. watchdog may be nil.
func NewCoordinator(store *prefs.Store, engine *schedule.Engine, clk clock.Clock, watchdog Watchdog) *Coordinator {
	return &Coordinator{
		store:    store,
		engine:   engine,
		clk:      clk,
		watchdog: watchdog,
	}
}

// HandleCheckIn processes one device poll. The preference mutation and the
// response computation happen inside a single atomic store update, which is
// what makes the feed-ASAP clear exactly-once under concurrent user edits:
// no other writer can observe the record between the history append and the
// override consumption.
//
// Feed-ASAP is a hard override: while pending, the response instructs an
// immediate single-scoop feeding regardless of the schedule. It is consumed
// by the next poll that reports a completed feeding.
func (c *Coordinator) HandleCheckIn(ctx context.Context, req Request) (Response, error) {
	now := c.clk.Now()

	var resp Response
	_, err := c.store.Update(func(p *prefs.Preferences) error {
		p.LastCheckInAt = &now

		consumed := false
		if req.ElapsedMSSinceLastFeeding != nil {
			elapsed := time.Duration(*req.ElapsedMSSinceLastFeeding) * time.Millisecond
			fedAt := now.Add(-elapsed)
			p.RecordFeeding(fedAt)
			consumed = true

			if p.FeedASAP {
				// The feeding we just recorded satisfies the override.
				p.FeedASAP = false
				logging.Ctx(ctx).Info().Time("fed_at", fedAt).Msg("Feed-ASAP override satisfied")
			}

			metrics.FeedingsRecorded.Inc()
			logging.Ctx(ctx).Info().
				Time("fed_at", fedAt).
				Int("history_len", len(p.FeedingHistory)).
				Msg("Recorded completed feeding")
		}

		resp = c.buildResponse(now, *p, consumed)
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	metrics.RecordCheckIn(now)
	metrics.ScoopsInstructed.Add(float64(resp.ScoopsToFeed))
	if c.watchdog != nil {
		c.watchdog.NoteCheckIn(now)
	}

	logging.Ctx(ctx).Debug().
		Uint64("next_checkin_ms", resp.DelayUntilNextCheckInMS).
		Bool("consumed", resp.LastFeedingTimeConsumed).
		Msg("Device check-in handled")

	return resp, nil
}

// buildResponse computes the poll answer against the already-updated record.
func (c *Coordinator) buildResponse(now time.Time, p prefs.Preferences, consumed bool) Response {
	resp := Response{LastFeedingTimeConsumed: consumed}

	if p.FeedASAP {
		// Hard override: feed now, one scoop, ignore the schedule.
		zero := uint64(0)
		resp.DelayUntilNextFeedingMS = &zero
		resp.ScoopsToFeed = 1
		resp.DelayUntilNextCheckInMS = uint64(c.engine.NextCheckInDelay(0, true).Milliseconds())
		return resp
	}

	feedingDelay, hasFeeding := c.engine.NextFeedingDelay(now, p)
	if hasFeeding {
		ms := uint64(feedingDelay.Milliseconds())
		resp.DelayUntilNextFeedingMS = &ms
	}

	scoops := p.ScoopsPerFeeding
	if scoops < 1 {
		scoops = 1
	}
	resp.ScoopsToFeed = uint32(scoops)
	resp.DelayUntilNextCheckInMS = uint64(c.engine.NextCheckInDelay(feedingDelay, hasFeeding).Milliseconds())
	return resp
}
