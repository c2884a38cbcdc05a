// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/clock"
)

func newTestUpdater(t *testing.T, now time.Time) (*Updater, *Store, *clock.Fake) {
	t.Helper()
	store := NewStore(openTestDB(t))
	fake := clock.NewFake(now)
	return NewUpdater(store, fake), store, fake
}

func TestApplyEdits_Schedule(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		edits        map[string]string
		wantSchedule FeedingSchedule
		wantStamped  bool
	}{
		{
			name:         "recognized schedule is applied and stamped",
			edits:        map[string]string{FieldSchedule: "mornings"},
			wantSchedule: ScheduleMornings,
			wantStamped:  true,
		},
		{
			name:         "unrecognized schedule keeps prior value",
			edits:        map[string]string{FieldSchedule: "whenever"},
			wantSchedule: ScheduleNever,
			wantStamped:  false,
		},
		{
			name:         "missing field keeps prior value",
			edits:        map[string]string{},
			wantSchedule: ScheduleNever,
			wantStamped:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater, _, _ := newTestUpdater(t, start)

			updated, err := updater.ApplyEdits(context.Background(), tt.edits)
			if err != nil {
				t.Fatalf("ApplyEdits: %v", err)
			}
			if updated.FeedingSchedule != tt.wantSchedule {
				t.Errorf("schedule = %v, want %v", updated.FeedingSchedule, tt.wantSchedule)
			}

			stamped := updated.LastScheduleChangeAt != nil
			if stamped != tt.wantStamped {
				t.Errorf("LastScheduleChangeAt stamped = %v, want %v", stamped, tt.wantStamped)
			}
			if stamped && !updated.LastScheduleChangeAt.Equal(start) {
				t.Errorf("LastScheduleChangeAt = %v, want %v", updated.LastScheduleChangeAt, start)
			}
		})
	}
}

func TestApplyEdits_NoOpScheduleKeepsStamp(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	updater, _, fake := newTestUpdater(t, start)
	ctx := context.Background()

	first, err := updater.ApplyEdits(ctx, map[string]string{FieldSchedule: "mornings"})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	// Re-submitting the same schedule later must not move the stamp: the
	// engine uses it to decide catch-up feedings.
	fake.Advance(2 * time.Hour)
	second, err := updater.ApplyEdits(ctx, map[string]string{FieldSchedule: "mornings"})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	if !second.LastScheduleChangeAt.Equal(*first.LastScheduleChangeAt) {
		t.Errorf("no-op edit moved LastScheduleChangeAt from %v to %v",
			first.LastScheduleChangeAt, second.LastScheduleChangeAt)
	}
}

func TestApplyEdits_Scoops(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid count applied", "3", 3},
		{"zero ignored", "0", 1},
		{"negative ignored", "-2", 1},
		{"garbage ignored", "three", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater, _, _ := newTestUpdater(t, start)

			updated, err := updater.ApplyEdits(context.Background(), map[string]string{FieldScoops: tt.value})
			if err != nil {
				t.Fatalf("ApplyEdits: %v", err)
			}
			if updated.ScoopsPerFeeding != tt.want {
				t.Errorf("scoops = %d, want %d", updated.ScoopsPerFeeding, tt.want)
			}
		})
	}
}

func TestApplyEdits_BatchIsAtomic(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	updater, store, _ := newTestUpdater(t, start)

	_, err := updater.ApplyEdits(context.Background(), map[string]string{
		FieldSchedule: "mornings_and_evenings",
		FieldScoops:   "2",
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	got := store.Snapshot()
	if got.FeedingSchedule != ScheduleMorningsAndEvenings || got.ScoopsPerFeeding != 2 {
		t.Errorf("snapshot = %+v, want both edits applied", got)
	}
}

func TestRequestFeedASAP(t *testing.T) {
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	updater, store, _ := newTestUpdater(t, start)

	updated, err := updater.RequestFeedASAP(context.Background())
	if err != nil {
		t.Fatalf("RequestFeedASAP: %v", err)
	}
	if !updated.FeedASAP {
		t.Error("FeedASAP not set")
	}
	if !store.Snapshot().FeedASAP {
		t.Error("FeedASAP not persisted in store")
	}
}
