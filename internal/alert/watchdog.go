// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonKimbel/CatFeeder/internal/clock"
	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/metrics"
)

// pollInterval is how often the watchdog evaluates the deadline. It only
// bounds alert latency, not accuracy, so it can be coarse.
const pollInterval = 10 * time.Second

// Watchdog raises an alert when the feeder misses its check-in deadline
// (one poll interval plus the configured grace). It alerts once per outage
// and re-arms when the device comes back.
//
// The coordinator calls NoteCheckIn on every poll; Serve runs under the
// supervisor tree.
type Watchdog struct {
	interval time.Duration
	grace    time.Duration
	clk      clock.Clock
	notifier Notifier // optional

	mu       sync.Mutex
	deadline time.Time // zero until the first check-in is seen
	alerted  bool
}

// NewWatchdog creates a watchdog. notifier may be nil (log-only alerts).
// lastCheckIn seeds the deadline from persisted state so a service restart
// does not forget an already-overdue device.
func NewWatchdog(interval, grace time.Duration, clk clock.Clock, notifier Notifier, lastCheckIn *time.Time) *Watchdog {
	w := &Watchdog{
		interval: interval,
		grace:    grace,
		clk:      clk,
		notifier: notifier,
	}
	if lastCheckIn != nil {
		w.deadline = lastCheckIn.Add(interval + grace)
	}
	return w
}

// NoteCheckIn re-arms the deadline after a device poll.
func (w *Watchdog) NoteCheckIn(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.deadline = at.Add(w.interval + w.grace)
	if w.alerted {
		w.alerted = false
		logging.Info().Time("at", at).Msg("Feeder is checking in again")
	}
	metrics.SetDeviceOnline(true)
}

// Serve implements suture.Service: it periodically checks the deadline and
// raises at most one alert per outage.
func (w *Watchdog) Serve(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.evaluate(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *Watchdog) String() string {
	return "outage-watchdog"
}

// evaluate fires the alert when the deadline has passed and no alert is
// outstanding.
func (w *Watchdog) evaluate(ctx context.Context) {
	now := w.clk.Now()

	w.mu.Lock()
	overdue := !w.deadline.IsZero() && now.After(w.deadline) && !w.alerted
	var lateBy time.Duration
	if overdue {
		w.alerted = true
		lateBy = now.Sub(w.deadline)
	}
	w.mu.Unlock()

	if !overdue {
		return
	}

	metrics.OutageAlerts.Inc()
	metrics.SetDeviceOnline(false)
	message := fmt.Sprintf("CatFeeder is %s late for check-in", lateBy.Round(time.Second))
	logging.Warn().Dur("late_by", lateBy).Msg("Feeder missed its check-in deadline")

	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, message); err != nil {
		logging.Warn().Err(err).Msg("Failed to deliver outage alert")
	}
}
