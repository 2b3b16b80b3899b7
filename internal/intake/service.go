// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package intake ties the report session to the components that feed it:
// the crash check, the corpus matcher, and the attachment assembler.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wingedpig/crashintake/internal/attach"
	"github.com/wingedpig/crashintake/internal/corpus"
	"github.com/wingedpig/crashintake/internal/crashcheck"
	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/fingerprint"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/metrics"
	"github.com/wingedpig/crashintake/internal/session"
	"github.com/wingedpig/crashintake/internal/watcher"
)

const recomputeKey = "recompute"

// Recompute outcomes.
const (
	RecomputeOK         = "ok"
	RecomputeStale      = "stale"      // the session was cleared or replaced
	RecomputeSuperseded = "superseded" // a newer edit scheduled another run
)

// ErrStale is returned when the session changed while a result was being
// produced for it.
var ErrStale = errors.New("report session changed")

// Deps are the components a Service coordinates.
type Deps struct {
	FS        hostfs.FS
	Store     *session.Store
	Scanner   *evidence.Scanner
	Matcher   *corpus.Matcher
	Assembler *attach.Assembler
	Dumper    *attach.Dumper
	Flow      *crashcheck.Flow
	Bus       events.Bus
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Config holds service settings.
type Config struct {
	Debounce time.Duration // Quiet period before a fingerprint recompute
	LogDir   string        // Application logs attached by GenerateReportFiles
}

// StateSource returns a value dumped into the report as JSON.
type StateSource func(ctx context.Context) (any, error)

// Related is the related-issue list computed for one session generation.
type Related struct {
	Generation  uint64         `json:"generation"`
	Fingerprint string         `json:"fingerprint"`
	Issues      []corpus.Issue `json:"issues"`
}

// Service owns the report session's background work.
type Service struct {
	deps      Deps
	cfg       Config
	logger    *slog.Logger
	debouncer *watcher.Debouncer

	mu          sync.Mutex
	ctx         context.Context
	unsubscribe func()
	lastContent contentKey
	related     Related
	states      []namedState
}

type namedState struct {
	name   string
	source StateSource
}

// contentKey identifies the fields a fingerprint depends on.
type contentKey struct {
	generation uint64
	title      string
	message    string
	stack      string
}

func keyOf(s session.Snapshot) contentKey {
	return contentKey{generation: s.Generation, title: s.Title, message: s.Message, stack: s.StackTrace}
}

// New creates a service. Call Start to begin reacting to session edits.
func New(deps Deps, cfg Config) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FS == nil {
		deps.FS = hostfs.NewOS()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	s := &Service{
		deps:      deps,
		cfg:       cfg,
		logger:    deps.Logger,
		debouncer: watcher.NewDebouncer(cfg.Debounce),
		ctx:       context.Background(),
	}
	s.AddStateSource("session", func(context.Context) (any, error) {
		return deps.Store.Get(), nil
	})
	return s
}

// Store returns the session store.
func (s *Service) Store() *session.Store { return s.deps.Store }

// Flow returns the crash check flow.
func (s *Service) Flow() *crashcheck.Flow { return s.deps.Flow }

// Bus returns the intent bus.
func (s *Service) Bus() events.Bus { return s.deps.Bus }

// AddStateSource registers a value dumped as <name>.json by
// GenerateReportFiles. Sources are dumped in registration order.
func (s *Service) AddStateSource(name string, src StateSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.states {
		if st.name == name {
			s.states[i].source = src
			return
		}
	}
	s.states = append(s.states, namedState{name: name, source: src})
}

// Start subscribes to session edits. Background work runs under ctx.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.ctx = ctx
	s.lastContent = keyOf(s.deps.Store.Get())
	s.mu.Unlock()

	unsubscribe := s.deps.Store.Subscribe(s.onCommit)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	// A session that already has content gets its related issues now.
	if snap := s.deps.Store.Get(); snap.Message != "" || snap.Title != "" || snap.StackTrace != "" {
		s.scheduleRecompute()
	}
}

// Close stops reacting to edits and drops pending recomputes.
func (s *Service) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.debouncer.Stop()
}

func (s *Service) onCommit(snap session.Snapshot) {
	key := keyOf(snap)
	s.mu.Lock()
	changed := key != s.lastContent
	s.lastContent = key
	s.mu.Unlock()

	if changed {
		s.scheduleRecompute()
	}
}

func (s *Service) scheduleRecompute() {
	s.debouncer.Schedule(recomputeKey, func(gen uint64) {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		s.recompute(ctx, gen)
	})
}

// recompute derives the fingerprint and related issues for the current
// content. Results for a session that changed in the meantime are dropped.
func (s *Service) recompute(ctx context.Context, gen uint64) {
	if ctx.Err() != nil {
		return
	}
	if gen != s.debouncer.Current(recomputeKey) {
		s.deps.Metrics.Recomputed(RecomputeSuperseded)
		return
	}

	snap := s.deps.Store.Get()
	fp := snap.Fingerprint
	if snap.Mutable || fp == "" {
		// Locked reports keep the fingerprint they were filed with.
		fp, _ = fingerprint.Generate(snap.Message, snap.StackTrace)
	}

	issues := s.deps.Matcher.FindRelated(ctx, corpus.Query{
		Title:        snap.Title,
		ErrorMessage: snap.Message,
		Fingerprint:  fp,
	})

	if gen != s.debouncer.Current(recomputeKey) {
		s.deps.Metrics.Recomputed(RecomputeSuperseded)
		return
	}
	if fp != snap.Fingerprint && !s.deps.Store.SetFingerprintFor(snap.Generation, fp) {
		s.deps.Metrics.Recomputed(RecomputeStale)
		s.logger.Debug("dropped stale recompute", "generation", snap.Generation)
		return
	}

	s.mu.Lock()
	if s.deps.Store.Generation() != snap.Generation {
		s.mu.Unlock()
		s.deps.Metrics.Recomputed(RecomputeStale)
		return
	}
	s.related = Related{Generation: snap.Generation, Fingerprint: fp, Issues: issues}
	s.mu.Unlock()

	s.deps.Metrics.Recomputed(RecomputeOK)
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, string(issue.ID))
	}
	s.publish(ctx, events.RelatedIssuesUpdated{
		Generation:  snap.Generation,
		Fingerprint: fp,
		IssueIDs:    ids,
	})
}

// Related returns the related issues computed for the current session.
// It is empty until the first recompute for this generation finishes.
func (s *Service) Related() Related {
	gen := s.deps.Store.Generation()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.related.Generation != gen {
		return Related{Generation: gen, Issues: []corpus.Issue{}}
	}
	r := s.related
	r.Issues = append([]corpus.Issue{}, r.Issues...)
	return r
}

// Clear discards the report and any work pending for it.
func (s *Service) Clear() session.Snapshot {
	s.debouncer.Cancel(recomputeKey)
	return s.deps.Store.Clear()
}

// RefreshCorpus refreshes the corpus now and recomputes related issues
// when it changed.
func (s *Service) RefreshCorpus(ctx context.Context) corpus.RefreshResult {
	res := s.deps.Matcher.Refresh(ctx)
	s.corpusRefreshed(ctx, res)
	return res
}

// RunCorpusRefresh refreshes the corpus immediately and then every
// interval until ctx is done.
func (s *Service) RunCorpusRefresh(ctx context.Context, interval time.Duration) {
	s.deps.Matcher.Run(ctx, interval, func(res corpus.RefreshResult) {
		s.corpusRefreshed(ctx, res)
	})
}

func (s *Service) corpusRefreshed(ctx context.Context, res corpus.RefreshResult) {
	in := events.CorpusRefreshed{Outcome: res.Outcome, Issues: res.Issues}
	if res.Err != nil {
		in.Error = res.Err.Error()
	}
	s.publish(ctx, in)

	s.mu.Lock()
	started := s.unsubscribe != nil
	s.mu.Unlock()
	if res.Outcome == corpus.OutcomeOK && started {
		s.scheduleRecompute()
	}
}

// CheckCrash runs the native crash check.
func (s *Service) CheckCrash(ctx context.Context) (crashcheck.Decision, error) {
	return s.deps.Flow.Run(ctx)
}

func (s *Service) publish(ctx context.Context, in events.Intent) {
	if s.deps.Bus == nil {
		return
	}
	if _, err := s.deps.Bus.Publish(ctx, in); err != nil {
		s.logger.Warn("failed to publish intent", "kind", in.Kind(), "error", err)
	}
}
