// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package schedule

import (
	"testing"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/config"
	"github.com/JonKimbel/CatFeeder/internal/prefs"
)

// testEngine builds an engine with the stock 6AM/6PM slots in UTC so test
// instants are unambiguous.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(config.FeederConfig{
		Timezone:        "UTC",
		MorningSlots:    []int{6 * 60},
		EveningSlots:    []int{18 * 60},
		CheckInInterval: 10 * time.Minute,
		SkewTolerance:   30 * time.Second,
		OfflineGrace:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func tsPtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed := ts(t, value)
	return &parsed
}

func TestNewEngine_BadTimezone(t *testing.T) {
	_, err := NewEngine(config.FeederConfig{Timezone: "Not/AZone"})
	if err == nil {
		t.Fatal("expected error for invalid time zone")
	}
}

func TestNextFeedingTime(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name     string
		now      string
		p        prefs.Preferences
		want     string
		wantNone bool
	}{
		{
			name:     "never schedule feeds nothing",
			now:      "2026-03-02T05:00:00Z",
			p:        prefs.Preferences{FeedingSchedule: prefs.ScheduleNever},
			wantNone: true,
		},
		{
			name: "mornings picks upcoming slot",
			now:  "2026-03-02T05:00:00Z",
			p:    prefs.Preferences{FeedingSchedule: prefs.ScheduleMornings},
			want: "2026-03-02T06:00:00Z",
		},
		{
			name: "mornings after slot rolls to tomorrow",
			now:  "2026-03-02T07:00:00Z",
			p:    prefs.Preferences{FeedingSchedule: prefs.ScheduleMornings},
			want: "2026-03-03T06:00:00Z",
		},
		{
			name: "evenings slot reachable on full schedule",
			now:  "2026-03-02T12:00:00Z",
			p:    prefs.Preferences{FeedingSchedule: prefs.ScheduleMorningsAndEvenings},
			want: "2026-03-02T18:00:00Z",
		},
		{
			name: "slot already fed within skew is skipped",
			now:  "2026-03-02T05:59:50Z",
			p: prefs.Preferences{
				FeedingSchedule: prefs.ScheduleMornings,
				FeedingHistory:  []time.Time{ts(t, "2026-03-02T05:59:45Z")},
			},
			want: "2026-03-03T06:00:00Z",
		},
		{
			name: "feeding just outside skew does not mask the slot",
			now:  "2026-03-02T05:58:00Z",
			p: prefs.Preferences{
				FeedingSchedule: prefs.ScheduleMornings,
				FeedingHistory:  []time.Time{ts(t, "2026-03-02T05:57:30Z")},
			},
			want: "2026-03-02T06:00:00Z",
		},
		{
			name: "catch-up feeds a slot missed after schedule change",
			now:  "2026-03-02T07:00:00Z",
			p: prefs.Preferences{
				FeedingSchedule:      prefs.ScheduleMornings,
				LastScheduleChangeAt: tsPtr(t, "2026-03-02T05:00:00Z"),
				FeedingHistory:       []time.Time{ts(t, "2026-03-02T04:00:00Z")},
			},
			want: "2026-03-02T07:00:00Z", // i.e. now
		},
		{
			name: "no catch-up when the slot was already fed",
			now:  "2026-03-02T07:00:00Z",
			p: prefs.Preferences{
				FeedingSchedule:      prefs.ScheduleMornings,
				LastScheduleChangeAt: tsPtr(t, "2026-03-02T05:00:00Z"),
				FeedingHistory:       []time.Time{ts(t, "2026-03-02T06:00:10Z")},
			},
			want: "2026-03-03T06:00:00Z",
		},
		{
			name: "no catch-up when the schedule changed after the slot",
			now:  "2026-03-02T07:00:00Z",
			p: prefs.Preferences{
				FeedingSchedule:      prefs.ScheduleMornings,
				LastScheduleChangeAt: tsPtr(t, "2026-03-02T06:30:00Z"),
				FeedingHistory:       []time.Time{ts(t, "2026-03-02T04:00:00Z")},
			},
			want: "2026-03-03T06:00:00Z",
		},
		{
			name: "no catch-up without any feeding history",
			now:  "2026-03-02T07:00:00Z",
			p: prefs.Preferences{
				FeedingSchedule:      prefs.ScheduleMornings,
				LastScheduleChangeAt: tsPtr(t, "2026-03-02T05:00:00Z"),
			},
			want: "2026-03-03T06:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.NextFeedingTime(ts(t, tt.now), tt.p)
			if tt.wantNone {
				if ok {
					t.Fatalf("NextFeedingTime = %v, want none", got)
				}
				return
			}
			if !ok {
				t.Fatal("NextFeedingTime returned none, want a feeding")
			}
			if !got.Equal(ts(t, tt.want)) {
				t.Errorf("NextFeedingTime = %v, want %v", got, ts(t, tt.want))
			}
		})
	}
}

func TestNextFeedingDelay_NeverNegative(t *testing.T) {
	engine := testEngine(t)

	// Catch-up returns "now", so the delay must clamp at zero.
	p := prefs.Preferences{
		FeedingSchedule:      prefs.ScheduleMornings,
		LastScheduleChangeAt: tsPtr(t, "2026-03-02T05:00:00Z"),
		FeedingHistory:       []time.Time{ts(t, "2026-03-02T04:00:00Z")},
	}
	delay, ok := engine.NextFeedingDelay(ts(t, "2026-03-02T07:00:00Z"), p)
	if !ok {
		t.Fatal("expected a feeding delay")
	}
	if delay != 0 {
		t.Errorf("catch-up delay = %v, want 0", delay)
	}
}

func TestNextCheckInDelay(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name         string
		feedingDelay time.Duration
		hasFeeding   bool
		want         time.Duration
	}{
		{
			name:       "no feeding keeps the base cadence",
			hasFeeding: false,
			want:       10 * time.Minute,
		},
		{
			name:         "distant feeding keeps the base cadence",
			feedingDelay: 2 * time.Hour,
			hasFeeding:   true,
			want:         10 * time.Minute,
		},
		{
			name:         "check-in colliding with feeding is pushed clear",
			feedingDelay: 10 * time.Minute,
			hasFeeding:   true,
			want:         11 * time.Minute,
		},
		{
			name:         "check-in at edge of window is pushed clear",
			feedingDelay: 10*time.Minute + 20*time.Second,
			hasFeeding:   true,
			want:         11 * time.Minute,
		},
		{
			name:         "check-in just outside window is untouched",
			feedingDelay: 10*time.Minute + 31*time.Second,
			hasFeeding:   true,
			want:         10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.NextCheckInDelay(tt.feedingDelay, tt.hasFeeding)
			if got != tt.want {
				t.Errorf("NextCheckInDelay(%v, %v) = %v, want %v",
					tt.feedingDelay, tt.hasFeeding, got, tt.want)
			}

			if tt.hasFeeding {
				lo := tt.feedingDelay - 30*time.Second
				hi := tt.feedingDelay + 30*time.Second
				if got >= lo && got <= hi {
					t.Errorf("NextCheckInDelay = %v, still within skew window of %v", got, tt.feedingDelay)
				}
			}
		})
	}
}

func TestNextFeedingTimeForDisplay_FeedASAP(t *testing.T) {
	engine := testEngine(t)
	now := ts(t, "2026-03-02T12:00:00Z")

	t.Run("pending ASAP shows the next expected poll", func(t *testing.T) {
		p := prefs.Preferences{
			FeedASAP:      true,
			LastCheckInAt: tsPtr(t, "2026-03-02T11:55:00Z"),
		}
		got, ok := engine.NextFeedingTimeForDisplay(now, p)
		if !ok {
			t.Fatal("expected a display feeding time")
		}
		want := ts(t, "2026-03-02T12:05:00Z")
		if !got.Equal(want) {
			t.Errorf("display time = %v, want %v", got, want)
		}
	})

	t.Run("ASAP before any check-in shows now", func(t *testing.T) {
		p := prefs.Preferences{FeedASAP: true}
		got, ok := engine.NextFeedingTimeForDisplay(now, p)
		if !ok {
			t.Fatal("expected a display feeding time")
		}
		if !got.Equal(now) {
			t.Errorf("display time = %v, want %v", got, now)
		}
	})
}

func TestCheckInRecent(t *testing.T) {
	engine := testEngine(t)
	now := ts(t, "2026-03-02T12:00:00Z")

	tests := []struct {
		name        string
		lastCheckIn *time.Time
		want        bool
	}{
		{"no check-in yet", nil, false},
		{"within interval", tsPtr(t, "2026-03-02T11:55:00Z"), true},
		{"within grace", tsPtr(t, "2026-03-02T11:49:30Z"), true},
		{"past deadline", tsPtr(t, "2026-03-02T11:48:00Z"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := prefs.Preferences{LastCheckInAt: tt.lastCheckIn}
			if got := engine.CheckInRecent(now, p); got != tt.want {
				t.Errorf("CheckInRecent = %v, want %v", got, tt.want)
			}
		})
	}
}
