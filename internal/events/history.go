// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sort"
	"sync"
	"time"
)

// HistoryConfig configures record retention.
type HistoryConfig struct {
	MaxEvents int
	MaxAge    time.Duration
}

// History keeps recent records. It doubles as the action history attached
// to reports.
type History struct {
	mu        sync.RWMutex
	records   []Record
	maxEvents int
	maxAge    time.Duration
	now       func() time.Time
}

// NewHistory creates a history.
func NewHistory(cfg HistoryConfig) *History {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 1000
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	return &History{
		records:   make([]Record, 0),
		maxEvents: cfg.MaxEvents,
		maxAge:    cfg.MaxAge,
		now:       time.Now,
	}
}

// Add stores a record, dropping the oldest beyond MaxEvents.
func (h *History) Add(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > h.maxEvents {
		h.records = h.records[len(h.records)-h.maxEvents:]
	}
}

// Query returns records matching filter, oldest first.
func (h *History) Query(filter Filter) ([]Record, error) {
	patterns := make([]Pattern, 0, len(filter.Kinds))
	for _, raw := range filter.Kinds {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	h.mu.RLock()
	result := make([]Record, 0)
	for _, rec := range h.records {
		if matches(rec, filter, patterns) {
			result = append(result, rec)
		}
	}
	h.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}
	return result, nil
}

func matches(rec Record, filter Filter, patterns []Pattern) bool {
	if len(patterns) > 0 {
		matched := false
		for _, p := range patterns {
			if p.Match(rec.Kind) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if !filter.Since.IsZero() && rec.Timestamp.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && rec.Timestamp.After(filter.Until) {
		return false
	}
	return true
}

// Prune drops records older than MaxAge.
func (h *History) Prune() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-h.maxAge)
	kept := make([]Record, 0, len(h.records))
	for _, rec := range h.records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	h.records = kept
}

// Len returns the number of stored records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Close releases resources.
func (h *History) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
