// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/report"
	"github.com/wingedpig/crashintake/internal/session"
)

// Trigger is a request from the host application to start or extend a
// report. Only types in this package implement it.
type Trigger interface {
	isTrigger()
}

// FeedbackRequested starts a locked report for an error the host caught.
type FeedbackRequested struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Hash    string   `json:"hash"`
	Files   []string `json:"files"`
}

// LogErrorReported attaches a session log to the current report.
type LogErrorReported struct {
	Path string `json:"path"`
}

func (FeedbackRequested) isTrigger() {}
func (LogErrorReported) isTrigger()  {}

// ErrUnknownTrigger is returned for trigger types HandleTrigger does not know.
var ErrUnknownTrigger = errors.New("unknown trigger")

// HandleTrigger applies a host trigger to the session.
func (s *Service) HandleTrigger(ctx context.Context, t Trigger) (session.Snapshot, error) {
	switch t := t.(type) {
	case FeedbackRequested:
		return s.feedbackRequested(ctx, t)
	case LogErrorReported:
		return s.logErrorReported(ctx, t)
	default:
		return session.Snapshot{}, fmt.Errorf("%w: %T", ErrUnknownTrigger, t)
	}
}

func (s *Service) feedbackRequested(ctx context.Context, t FeedbackRequested) (session.Snapshot, error) {
	files := make([]evidence.File, 0, len(t.Files))
	for _, path := range t.Files {
		f, err := evidence.Identify(ctx, s.deps.FS, path, evidence.CategoryUserAttachment)
		if err != nil {
			e := intakeerr.New(intakeerr.KindEvidenceUnavailable, "intake.FeedbackRequested", path, err)
			s.logger.Warn("feedback attachment unavailable", "path", path, "error", e)
			continue
		}
		files = append(files, f)
	}

	draft := session.Draft{
		Title:       t.Title,
		Message:     t.Message,
		Fingerprint: t.Hash,
		Files:       files,
		Locked:      true,
		Origin:      session.OriginFeedback,
	}
	// Errors the host formatted as a report are split into their sections.
	if d := report.ExtractErrorDetails(t.Message); d.Message != "" {
		draft.Message, draft.StackTrace, draft.Context = d.Message, d.Stack, d.Context
	}

	s.debouncer.Cancel(recomputeKey)
	snap := s.deps.Store.Begin(draft)
	s.publish(ctx, events.ReportDrafted{
		SessionID:  snap.ID,
		Generation: snap.Generation,
		Origin:     string(snap.Origin),
		Files:      len(files),
		Locked:     !snap.Mutable,
	})
	return snap, nil
}

func (s *Service) logErrorReported(ctx context.Context, t LogErrorReported) (session.Snapshot, error) {
	f, err := evidence.Identify(ctx, s.deps.FS, t.Path, evidence.CategoryApplicationLog)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("attach session log: %w",
			intakeerr.New(intakeerr.KindEvidenceUnavailable, "intake.LogErrorReported", t.Path, err))
	}
	snap := s.deps.Store.AddFile(f)
	s.publish(ctx, events.ReportDrafted{
		SessionID:  snap.ID,
		Generation: snap.Generation,
		Origin:     string(session.OriginLogError),
		Files:      len(snap.Files),
		Locked:     !snap.Mutable,
	})
	return snap, nil
}
