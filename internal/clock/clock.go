// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package clock provides an injectable time source so the feeding schedule
// can be exercised in tests with a fixed "now" instead of the wall clock.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Components that make time-dependent
// decisions take a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

// Fake is a Clock that returns a controlled instant. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake clock pinned to the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the pinned instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set pins the clock to a new instant.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Advance moves the clock forward by d and returns the new instant.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	return f.now
}
