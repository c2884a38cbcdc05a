// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package schedule computes feeding times. The engine is a pure function of
// "now" and the preference record: there is no persisted scheduler state,
// which keeps every decision recomputable and trivially testable.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/config"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
)

// Engine computes the next feeding time and the device poll cadence from
// the configured slot tables. All methods are pure and safe for concurrent
// use.
type Engine struct {
	location        *time.Location
	morningSlots    []int // minutes into the day
	eveningSlots    []int
	checkInInterval time.Duration
	skewTolerance   time.Duration
	offlineGrace    time.Duration
}

// NewEngine builds an engine from the feeder configuration.
func NewEngine(cfg config.FeederConfig) (*Engine, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load feeder time zone %q: %w", cfg.Timezone, err)
	}

	return &Engine{
		location:        loc,
		morningSlots:    cfg.MorningSlots,
		eveningSlots:    cfg.EveningSlots,
		checkInInterval: cfg.CheckInInterval,
		skewTolerance:   cfg.SkewTolerance,
		offlineGrace:    cfg.OfflineGrace,
	}, nil
}

// NextFeedingTime returns the instant of the next feeding, or false if the
// schedule never feeds automatically.
//
// Candidates are the schedule's slots expanded for today and tomorrow in
// the feeder's time zone, walked in ascending order:
//
//   - A future candidate is skipped when the device already fed within the
//     skew tolerance before it (an early poll fed this slot); otherwise it
//     is the next feeding.
//   - A past candidate triggers an immediate catch-up feeding when the
//     schedule changed before that slot and the device never fed for it.
//     This is what converges quickly after a schedule change: the missed
//     slot is fed on the very next poll instead of waiting a day.
//
// Ties within the skew window resolve in favor of NOT re-feeding; a skipped
// feeding self-corrects on the next slot, a double feeding does not.
// Daylight-saving transitions are an acknowledged open risk.
func (e *Engine) NextFeedingTime(now time.Time, p prefs.Preferences) (time.Time, bool) {
	candidates := e.candidates(now, p.FeedingSchedule)
	lastFed, hasFed := p.LastFeeding()
	lastChange := p.LastScheduleChangeAt

	for _, candidate := range candidates {
		if candidate.After(now) {
			if hasFed && lastFed.After(candidate.Add(-e.skewTolerance)) {
				// The device just fed for this slot due to early/late
				// polling; move on to the next one.
				continue
			}
			return candidate, true
		}

		if hasFed && lastChange != nil &&
			lastChange.Before(candidate) &&
			lastFed.Before(candidate.Add(-e.skewTolerance)) {
			return now, true
		}
	}

	return time.Time{}, false
}

// NextFeedingDelay returns the non-negative delay until the next feeding,
// or false if the schedule never feeds.
func (e *Engine) NextFeedingDelay(now time.Time, p prefs.Preferences) (time.Duration, bool) {
	next, ok := e.NextFeedingTime(now, p)
	if !ok {
		return 0, false
	}
	delay := next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// NextCheckInDelay returns how long the device should wait before polling
// again. The base cadence is fixed, but a poll must never be scheduled
// within the skew tolerance of a feeding: the device would be told to come
// back right when it should be fed and the two instructions could race. If
// the cadence lands inside that window it is pushed forward by the
// tolerance increment until clear.
func (e *Engine) NextCheckInDelay(feedingDelay time.Duration, hasFeeding bool) time.Duration {
	delay := e.checkInInterval
	if !hasFeeding {
		return delay
	}

	for delay >= feedingDelay-e.skewTolerance && delay <= feedingDelay+e.skewTolerance {
		delay += e.skewTolerance
	}
	return delay
}

// NextFeedingTimeForDisplay returns the next feeding instant as shown to
// the user. When feed-ASAP is pending, the honest answer is the device's
// next expected poll, since that is when the override will be delivered.
func (e *Engine) NextFeedingTimeForDisplay(now time.Time, p prefs.Preferences) (time.Time, bool) {
	if p.FeedASAP {
		if p.LastCheckInAt == nil {
			return now, true
		}
		return p.LastCheckInAt.Add(e.checkInInterval), true
	}
	return e.NextFeedingTime(now, p)
}

// CheckInRecent reports whether the device has polled within its deadline
// (one poll interval plus the offline grace).
func (e *Engine) CheckInRecent(now time.Time, p prefs.Preferences) bool {
	if p.LastCheckInAt == nil {
		return false
	}
	return now.Sub(*p.LastCheckInAt) <= e.checkInInterval+e.offlineGrace
}

// CheckInInterval returns the configured base poll cadence.
func (e *Engine) CheckInInterval() time.Duration {
	return e.checkInInterval
}

// candidates expands the schedule's slot table into concrete instants for
// today and tomorrow, sorted ascending. Including tomorrow guarantees at
// least one future candidate whenever the schedule feeds at all.
func (e *Engine) candidates(now time.Time, s prefs.FeedingSchedule) []time.Time {
	var slots []int
	switch s {
	case prefs.ScheduleMornings:
		slots = e.morningSlots
	case prefs.ScheduleMorningsAndEvenings:
		slots = append(append([]int{}, e.morningSlots...), e.eveningSlots...)
	default:
		return nil
	}

	local := now.In(e.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.location)
	tomorrow := midnight.AddDate(0, 0, 1)

	candidates := make([]time.Time, 0, 2*len(slots))
	for _, minutes := range slots {
		offset := time.Duration(minutes) * time.Minute
		candidates = append(candidates, midnight.Add(offset), tomorrow.Add(offset))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Before(candidates[j])
	})
	return candidates
}
