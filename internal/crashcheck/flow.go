// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package crashcheck runs the native crash check: find the dumps a crashed
// session left behind, decide what kind of failure they record, and act on
// the user's choice.
package crashcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wingedpig/crashintake/internal/classify"
	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/report"
	"github.com/wingedpig/crashintake/internal/session"
)

// State is a step of the crash check.
type State int

const (
	Idle State = iota
	Scanning
	NoEvidence
	Classifying
	KnownError
	UnknownError
	UserDismissed
	UserRequestedReport
)

var stateNames = [...]string{
	Idle:                "idle",
	Scanning:            "scanning",
	NoEvidence:          "no_evidence",
	Classifying:         "classifying",
	KnownError:          "known_error",
	UnknownError:        "unknown_error",
	UserDismissed:       "user_dismissed",
	UserRequestedReport: "user_requested_report",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// pending reports whether the user has a crash notice to act on.
func (s State) pending() bool {
	return s == KnownError || s == UnknownError
}

// ErrInvalidTransition is returned when an action does not apply to the
// current state.
var ErrInvalidTransition = errors.New("invalid crash check transition")

// Decision is the outcome of a crash check run.
type Decision struct {
	State       State           `json:"state"`
	Result      classify.Result `json:"result"`
	Evidence    []evidence.File `json:"evidence,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
	HelpURL     string          `json:"help_url,omitempty"`
}

// Info is the text behind the notice's "More" action.
type Info struct {
	Known       bool   `json:"known"`
	Category    string `json:"category"`
	Explanation string `json:"explanation"`
	HelpURL     string `json:"help_url"`
}

// Flow drives one crash check at a time.
type Flow struct {
	fs         hostfs.FS
	scanner    *evidence.Scanner
	classifier *classify.Classifier
	store      *session.Store
	bus        events.Bus
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	evidence []evidence.File
	result   classify.Result
}

// New creates a flow in the Idle state.
func New(fsys hostfs.FS, scanner *evidence.Scanner, classifier *classify.Classifier,
	store *session.Store, bus events.Bus, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		fs:         fsys,
		scanner:    scanner,
		classifier: classifier,
		store:      store,
		bus:        bus,
		logger:     logger,
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Decision returns the latest decision without running a check.
func (f *Flow) Decision() Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decisionLocked()
}

func (f *Flow) decisionLocked() Decision {
	d := Decision{
		State:    f.state,
		Result:   f.result,
		Evidence: append([]evidence.File(nil), f.evidence...),
	}
	if f.state.pending() {
		d.Explanation = classify.Explanation(f.result.Category)
		d.HelpURL = classify.HelpURL
	}
	return d
}

// Run scans for dumps and, if any exist, classifies them. A new run may
// start from any state except while another run is in progress; a pending
// notice is replaced by the new result.
func (f *Flow) Run(ctx context.Context) (Decision, error) {
	f.mu.Lock()
	if f.state == Scanning || f.state == Classifying {
		f.mu.Unlock()
		return Decision{}, fmt.Errorf("%w: check already %s", ErrInvalidTransition, f.state)
	}
	f.state = Scanning
	f.evidence = nil
	f.result = classify.Result{}
	f.mu.Unlock()

	found := f.scanner.Scan(ctx)
	dumps := f.scanner.DumpPaths(found)

	f.mu.Lock()
	if len(dumps) == 0 {
		f.state = NoEvidence
		d := f.decisionLocked()
		f.mu.Unlock()
		f.logger.Debug("no crash dumps found")
		return d, nil
	}
	f.state = Classifying
	f.evidence = found
	f.mu.Unlock()

	res := f.classifier.Classify(ctx, dumps)

	f.mu.Lock()
	f.result = res
	if res.Known() {
		f.state = KnownError
	} else {
		f.state = UnknownError
	}
	d := f.decisionLocked()
	f.mu.Unlock()

	f.logger.Info("last session crashed",
		"dumps", len(dumps), "category", res.Category.String(), "code", res.Code)

	var in events.Intent
	if res.Known() {
		in = events.KnownErrorDetected{
			Category:    res.Category.String(),
			Code:        res.Code,
			Explanation: d.Explanation,
			HelpURL:     d.HelpURL,
			Dumps:       dumps,
		}
	} else {
		in = events.UnknownErrorDetected{
			Codes:       res.Codes,
			Ambiguous:   res.Ambiguous,
			Explanation: d.Explanation,
			HelpURL:     d.HelpURL,
			Dumps:       dumps,
		}
	}
	f.publish(ctx, in)
	return d, nil
}

// MoreInfo returns the explanation for the pending notice.
func (f *Flow) MoreInfo() (Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.pending() {
		return Info{}, fmt.Errorf("%w: no crash notice in state %s", ErrInvalidTransition, f.state)
	}
	return Info{
		Known:       f.result.Known(),
		Category:    f.result.Category.String(),
		Explanation: classify.Explanation(f.result.Category),
		HelpURL:     classify.HelpURL,
	}, nil
}

// Dismiss deletes the dumps and their sidecar logs. Deletion is best
// effort; failures are logged by the scanner. It returns the number of
// files removed.
func (f *Flow) Dismiss(ctx context.Context) (int, error) {
	f.mu.Lock()
	if !f.state.pending() {
		state := f.state
		f.mu.Unlock()
		return 0, fmt.Errorf("%w: cannot dismiss in state %s", ErrInvalidTransition, state)
	}
	f.state = UserDismissed
	dumps := f.scanner.DumpPaths(f.evidence)
	f.mu.Unlock()

	removed := f.scanner.Discard(ctx, dumps)
	f.publish(ctx, events.EvidenceDismissed{Dumps: dumps, Removed: removed})
	return removed, nil
}

// RequestReport starts an editable crash report with the dumps attached.
// Dumps that vanished since the scan are left out. The files are returned.
func (f *Flow) RequestReport(ctx context.Context) ([]evidence.File, error) {
	f.mu.Lock()
	if !f.state.pending() {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot report in state %s", ErrInvalidTransition, state)
	}
	f.state = UserRequestedReport
	found := append([]evidence.File(nil), f.evidence...)
	f.mu.Unlock()

	files := make([]evidence.File, 0, len(found))
	for _, ef := range found {
		current, err := evidence.Identify(ctx, f.fs, ef.Path, ef.Category)
		if err != nil {
			f.logger.Warn("crash evidence vanished", "path", ef.Path, "error", err)
			continue
		}
		files = append(files, current)
	}

	snap := f.store.Begin(session.Draft{
		Title:   report.CrashTitle,
		Message: report.SampleBug,
		Files:   files,
		Origin:  session.OriginCrash,
	})
	f.publish(ctx, events.ReportDrafted{
		SessionID:  snap.ID,
		Generation: snap.Generation,
		Origin:     string(snap.Origin),
		Files:      len(files),
		Locked:     !snap.Mutable,
	})
	return files, nil
}

// Reset returns a finished check to Idle.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Scanning || f.state == Classifying {
		return
	}
	f.state = Idle
	f.evidence = nil
	f.result = classify.Result{}
}

func (f *Flow) publish(ctx context.Context, in events.Intent) {
	if f.bus == nil {
		return
	}
	if _, err := f.bus.Publish(ctx, in); err != nil {
		f.logger.Warn("failed to publish intent", "kind", in.Kind(), "error", err)
	}
}
