// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package corpus keeps a local snapshot of previously filed issues and finds
// the ones related to a report.
package corpus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/metrics"
	"github.com/wingedpig/crashintake/internal/similarity"
)

// Threshold is the similarity a title or body must exceed to count as related.
const Threshold = 90

// Query describes the report being matched.
type Query struct {
	Title        string `json:"title"`
	ErrorMessage string `json:"error_message"`
	Fingerprint  string `json:"fingerprint"`
}

// Refresh outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeInvalid    = "invalid"
	OutcomeWriteError = "write_error"
)

// RefreshResult reports what a refresh did. It is informational only.
type RefreshResult struct {
	Outcome  string        `json:"outcome"`
	Issues   int           `json:"issues"`
	Duration time.Duration `json:"duration"`
	Shared   bool          `json:"shared"` // joined a refresh already in flight
	Err      error         `json:"-"`
}

// Matcher finds related issues in the cached corpus.
type Matcher struct {
	cache   *Cache
	source  Source
	scorer  similarity.Scorer
	logger  *slog.Logger
	metrics *metrics.Metrics

	group singleflight.Group

	mu       sync.Mutex
	loaded   bool
	snapshot []Issue
}

// NewMatcher creates a matcher. A nil scorer uses similarity.PartialRatio.
func NewMatcher(cache *Cache, source Source, scorer similarity.Scorer, logger *slog.Logger, m *metrics.Metrics) *Matcher {
	if scorer == nil {
		scorer = similarity.PartialRatio{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{cache: cache, source: source, scorer: scorer, logger: logger, metrics: m}
}

// Refresh fetches the corpus and replaces the cache. Concurrent calls share
// one fetch. Failures are logged and leave the previous cache in place.
func (m *Matcher) Refresh(ctx context.Context) RefreshResult {
	v, _, shared := m.group.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx), nil
	})
	res := v.(RefreshResult)
	res.Shared = shared
	return res
}

func (m *Matcher) refresh(ctx context.Context) RefreshResult {
	if m.source == nil {
		return RefreshResult{Outcome: OutcomeFetchError, Err: errors.New("no corpus source configured")}
	}

	start := time.Now()
	data, err := m.source.Fetch(ctx)
	fetched := time.Since(start)
	if err != nil {
		return m.refreshFailed(OutcomeFetchError, fetched, err)
	}

	n, err := m.cache.Replace(ctx, data)
	if err != nil {
		outcome := OutcomeWriteError
		if errors.Is(err, ErrInvalidDocument) {
			outcome = OutcomeInvalid
		}
		return m.refreshFailed(outcome, fetched, err)
	}

	m.invalidate()
	m.metrics.CorpusRefreshed(OutcomeOK, fetched)
	m.logger.Info("corpus refreshed", "issues", n, "path", m.cache.Path(), "duration", fetched)
	return RefreshResult{Outcome: OutcomeOK, Issues: n, Duration: fetched}
}

func (m *Matcher) refreshFailed(outcome string, fetched time.Duration, err error) RefreshResult {
	e := intakeerr.New(intakeerr.KindCorpusUnavailable, "corpus.Refresh", outcome, err)
	m.metrics.CorpusRefreshed(outcome, fetched)
	m.logger.Warn("corpus refresh failed", "outcome", outcome, "path", m.cache.Path(), "error", e)
	return RefreshResult{Outcome: outcome, Duration: fetched, Err: e}
}

// Run refreshes immediately and then every interval until ctx is done.
// notify, if set, receives every result.
func (m *Matcher) Run(ctx context.Context, interval time.Duration, notify func(RefreshResult)) {
	refresh := func() {
		res := m.Refresh(ctx)
		if notify != nil && ctx.Err() == nil {
			notify(res)
		}
	}

	refresh()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// Issues returns the cached corpus, or nil if it is absent or corrupt.
func (m *Matcher) Issues(ctx context.Context) []Issue {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.snapshot
	}

	issues, err := m.cache.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		e := intakeerr.New(intakeerr.KindCorpusUnavailable, "corpus.Load", "read reference issues", err)
		m.logger.Warn("failed to read reference issues", "path", m.cache.Path(), "error", e)
		issues = nil
	}
	m.snapshot = issues
	m.loaded = true
	return issues
}

func (m *Matcher) invalidate() {
	m.mu.Lock()
	m.loaded = false
	m.snapshot = nil
	m.mu.Unlock()
}

// FindRelated returns issues with the same fingerprint, or whose title or
// body is similar enough to the report. It never fails.
func (m *Matcher) FindRelated(ctx context.Context, q Query) []Issue {
	related := make([]Issue, 0)
	for _, issue := range m.Issues(ctx) {
		if m.related(issue, q) {
			related = append(related, issue)
		}
	}
	m.metrics.RelatedLookup(len(related))
	return related
}

func (m *Matcher) related(issue Issue, q Query) bool {
	if q.Fingerprint != "" && issue.Fingerprint == q.Fingerprint {
		return true
	}
	if m.scorer.Score(issue.Title, q.Title) > Threshold {
		return true
	}
	return m.scorer.Score(issue.Body, q.ErrorMessage) > Threshold
}
