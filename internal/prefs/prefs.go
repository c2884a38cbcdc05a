// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package prefs holds the durable state of the control service: the single
// Preferences record (feeding schedule, scoop count, feeding history,
// check-in stamps), its BadgerDB-backed store, and the updater that applies
// user edits.
package prefs

import (
	"time"
)

// MaxFeedingHistory bounds the feeding history ledger. Older entries drop
// off; the service never needs more than the recent window to schedule.
const MaxFeedingHistory = 10

// FeedingSchedule selects which time-of-day slot table the schedule engine
// consults.
type FeedingSchedule int

const (
	// ScheduleNever disables automatic feeding.
	ScheduleNever FeedingSchedule = iota

	// ScheduleMornings feeds at the configured morning slots only.
	ScheduleMornings

	// ScheduleMorningsAndEvenings feeds at the morning and evening slots.
	ScheduleMorningsAndEvenings
)

// scheduleNames maps enum values to their canonical wire/form strings.
var scheduleNames = map[FeedingSchedule]string{
	ScheduleNever:               "never",
	ScheduleMornings:            "mornings",
	ScheduleMorningsAndEvenings: "mornings_and_evenings",
}

// scheduleValues is the closed decision table for parsing user-submitted
// schedule strings. Anything not in this table is rejected by the caller;
// there is deliberately no fuzzy matching.
var scheduleValues = map[string]FeedingSchedule{
	"never":                 ScheduleNever,
	"mornings":              ScheduleMornings,
	"mornings_and_evenings": ScheduleMorningsAndEvenings,
}

// String returns the canonical name for the schedule.
func (s FeedingSchedule) String() string {
	if name, ok := scheduleNames[s]; ok {
		return name
	}
	return "never"
}

// ScheduleFromString resolves a user-submitted schedule string against the
// decision table. The bool reports whether the string was recognized.
func ScheduleFromString(value string) (FeedingSchedule, bool) {
	s, ok := scheduleValues[value]
	return s, ok
}

// Preferences is the sole unit of durable state: one mutable record,
// persisted as a whole after every mutation.
//
// Invariants (enforced by the store on every update):
//   - FeedingHistory holds at most MaxFeedingHistory entries, newest first.
//   - ScoopsPerFeeding is at least 1.
//   - LastScheduleChangeAt moves only when FeedingSchedule actually changes.
//   - FeedASAP is cleared exactly once, by the check-in that records the
//     feeding it triggered.
type Preferences struct {
	FeedingSchedule      FeedingSchedule `json:"feeding_schedule"`
	ScoopsPerFeeding     int             `json:"scoops_per_feeding"`
	LastScheduleChangeAt *time.Time      `json:"last_schedule_change_at,omitempty"`
	FeedASAP             bool            `json:"feed_asap"`
	FeedingHistory       []time.Time     `json:"feeding_history,omitempty"`
	LastCheckInAt        *time.Time      `json:"last_check_in_at,omitempty"`
}

// Default returns the Preferences used when no persisted record exists.
func Default() Preferences {
	return Preferences{
		FeedingSchedule:  ScheduleNever,
		ScoopsPerFeeding: 1,
	}
}

// Clone returns a deep copy. The store hands out clones so callers can never
// mutate the cached record outside a locked update.
func (p Preferences) Clone() Preferences {
	out := p
	if p.LastScheduleChangeAt != nil {
		t := *p.LastScheduleChangeAt
		out.LastScheduleChangeAt = &t
	}
	if p.LastCheckInAt != nil {
		t := *p.LastCheckInAt
		out.LastCheckInAt = &t
	}
	if p.FeedingHistory != nil {
		out.FeedingHistory = make([]time.Time, len(p.FeedingHistory))
		copy(out.FeedingHistory, p.FeedingHistory)
	}
	return out
}

// LastFeeding returns the most recent feeding instant. The bool reports
// whether any feeding has been recorded.
func (p Preferences) LastFeeding() (time.Time, bool) {
	if len(p.FeedingHistory) == 0 {
		return time.Time{}, false
	}
	return p.FeedingHistory[0], true
}

// RecordFeeding prepends a completed feeding to the history, dropping the
// oldest entries past MaxFeedingHistory.
func (p *Preferences) RecordFeeding(at time.Time) {
	history := make([]time.Time, 0, MaxFeedingHistory)
	history = append(history, at)
	for _, t := range p.FeedingHistory {
		if len(history) == MaxFeedingHistory {
			break
		}
		history = append(history, t)
	}
	p.FeedingHistory = history
}

// normalize clamps fields into their legal ranges. Called by the store on
// every update so no write path can persist an invalid record.
func (p *Preferences) normalize() {
	if p.ScoopsPerFeeding < 1 {
		p.ScoopsPerFeeding = 1
	}
	if len(p.FeedingHistory) > MaxFeedingHistory {
		p.FeedingHistory = p.FeedingHistory[:MaxFeedingHistory]
	}
}
