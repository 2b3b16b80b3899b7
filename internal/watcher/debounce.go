// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"sync"
	"time"
)

const defaultDebounceDuration = time.Second

// Debouncer coalesces bursts of calls per key into a single delayed run.
// Every schedule bumps the key's generation; a run receives the generation it
// was scheduled with and can compare it to Current to detect that it has
// been superseded while it was working.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timers   map[string]*time.Timer
	gens     map[string]uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = defaultDebounceDuration
	}
	return &Debouncer{
		duration: duration,
		timers:   make(map[string]*time.Timer),
		gens:     make(map[string]uint64),
	}
}

// Debounce schedules fn after the quiet period, replacing any pending run
// for key.
func (d *Debouncer) Debounce(key string, fn func()) {
	d.Schedule(key, func(uint64) { fn() })
}

// Schedule is Debounce with the run's generation passed to fn. It returns
// the generation assigned to this schedule.
func (d *Debouncer) Schedule(key string, fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[key]; exists {
		timer.Stop()
	}
	d.gens[key]++
	gen := d.gens[key]

	var timer *time.Timer
	timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn(gen)
	})
	d.timers[key] = timer
	return gen
}

// Current returns the latest generation for key. A run whose generation
// differs from Current has been superseded or cancelled.
func (d *Debouncer) Current(key string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gens[key]
}

// Pending reports whether a run is scheduled for key and has not fired yet.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Cancel drops a pending run for key. Runs already in progress are
// invalidated through the generation counter.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[key]; exists {
		timer.Stop()
		delete(d.timers, key)
	}
	d.gens[key]++
}

// Stop cancels all pending runs.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
		d.gens[key]++
	}
}

// SetDuration changes the quiet period for future schedules.
// Existing timers are not affected.
func (d *Debouncer) SetDuration(duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if duration <= 0 {
		duration = defaultDebounceDuration
	}
	d.duration = duration
}

// Duration returns the current quiet period.
func (d *Debouncer) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}
