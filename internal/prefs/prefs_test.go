// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package prefs

import (
	"testing"
	"time"
)

func TestScheduleFromString(t *testing.T) {
	tests := []struct {
		input      string
		want       FeedingSchedule
		recognized bool
	}{
		{"never", ScheduleNever, true},
		{"mornings", ScheduleMornings, true},
		{"mornings_and_evenings", ScheduleMorningsAndEvenings, true},
		{"MORNINGS", 0, false},
		{"twice_daily", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ScheduleFromString(tt.input)
			if ok != tt.recognized {
				t.Fatalf("ScheduleFromString(%q) recognized = %v, want %v", tt.input, ok, tt.recognized)
			}
			if ok && got != tt.want {
				t.Errorf("ScheduleFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFeedingScheduleString(t *testing.T) {
	tests := []struct {
		s    FeedingSchedule
		want string
	}{
		{ScheduleNever, "never"},
		{ScheduleMornings, "mornings"},
		{ScheduleMorningsAndEvenings, "mornings_and_evenings"},
		{FeedingSchedule(99), "never"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("FeedingSchedule(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestRecordFeeding_NewestFirstAndBounded(t *testing.T) {
	p := Default()
	base := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	for i := 0; i < MaxFeedingHistory+5; i++ {
		p.RecordFeeding(base.Add(time.Duration(i) * time.Hour))
	}

	if len(p.FeedingHistory) != MaxFeedingHistory {
		t.Fatalf("history length = %d, want %d", len(p.FeedingHistory), MaxFeedingHistory)
	}

	// Newest entry first, strictly descending after that.
	newest := base.Add(time.Duration(MaxFeedingHistory+4) * time.Hour)
	if !p.FeedingHistory[0].Equal(newest) {
		t.Errorf("history[0] = %v, want %v", p.FeedingHistory[0], newest)
	}
	for i := 1; i < len(p.FeedingHistory); i++ {
		if !p.FeedingHistory[i].Before(p.FeedingHistory[i-1]) {
			t.Errorf("history not descending at %d: %v >= %v", i, p.FeedingHistory[i], p.FeedingHistory[i-1])
		}
	}
}

func TestLastFeeding(t *testing.T) {
	p := Default()
	if _, ok := p.LastFeeding(); ok {
		t.Fatal("LastFeeding reported a feeding on an empty history")
	}

	at := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	p.RecordFeeding(at)
	got, ok := p.LastFeeding()
	if !ok || !got.Equal(at) {
		t.Errorf("LastFeeding = %v, %v, want %v, true", got, ok, at)
	}
}

func TestClone_IsDeep(t *testing.T) {
	changed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	checkedIn := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	original := Preferences{
		FeedingSchedule:      ScheduleMornings,
		ScoopsPerFeeding:     2,
		LastScheduleChangeAt: &changed,
		LastCheckInAt:        &checkedIn,
		FeedingHistory:       []time.Time{checkedIn},
	}

	clone := original.Clone()
	clone.FeedingHistory[0] = clone.FeedingHistory[0].Add(time.Hour)
	*clone.LastScheduleChangeAt = clone.LastScheduleChangeAt.Add(time.Hour)
	*clone.LastCheckInAt = clone.LastCheckInAt.Add(time.Hour)

	if !original.FeedingHistory[0].Equal(checkedIn) {
		t.Error("mutating clone history changed the original")
	}
	if !original.LastScheduleChangeAt.Equal(changed) {
		t.Error("mutating clone schedule-change stamp changed the original")
	}
	if !original.LastCheckInAt.Equal(checkedIn) {
		t.Error("mutating clone check-in stamp changed the original")
	}
}
