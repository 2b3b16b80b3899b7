// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events carries intents from the intake core to the collaborators
// that render them.
package events

import (
	"context"
	"errors"
	"fmt"
)

// Intent is a closed set of messages. Only types in this package implement it.
type Intent interface {
	Kind() string
	isIntent()
}

// Intent kinds, used for subscription patterns and history filters.
const (
	KindKnownError     = "crash.known_error"
	KindUnknownError   = "crash.unknown_error"
	KindDismissed      = "crash.dismissed"
	KindReportDrafted  = "report.drafted"
	KindArchiveReady   = "archive.ready"
	KindArchiveFailed  = "archive.failed"
	KindRelatedUpdated = "corpus.related_updated"
	KindCorpusRefresh  = "corpus.refreshed"
)

// Kinds lists every intent kind.
var Kinds = []string{
	KindKnownError, KindUnknownError, KindDismissed, KindReportDrafted,
	KindArchiveReady, KindArchiveFailed, KindRelatedUpdated, KindCorpusRefresh,
}

// KnownErrorDetected: the last session crashed with a recognised failure.
type KnownErrorDetected struct {
	Category    string   `json:"category"`
	Code        string   `json:"code"`
	Explanation string   `json:"explanation"`
	HelpURL     string   `json:"help_url"`
	Dumps       []string `json:"dumps"`
}

// UnknownErrorDetected: the last session crashed and the cause is unknown.
type UnknownErrorDetected struct {
	Codes       []string `json:"codes,omitempty"`
	Ambiguous   bool     `json:"ambiguous,omitempty"`
	Explanation string   `json:"explanation"`
	HelpURL     string   `json:"help_url"`
	Dumps       []string `json:"dumps"`
}

// EvidenceDismissed: the user dismissed the crash notice.
type EvidenceDismissed struct {
	Dumps   []string `json:"dumps"`
	Removed int      `json:"removed"`
}

// ReportDrafted: a report was pre-populated and is ready for the user.
type ReportDrafted struct {
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Origin     string `json:"origin"`
	Files      int    `json:"files"`
	Locked     bool   `json:"locked"`
}

// ArchiveReady: the attachments were packaged.
type ArchiveReady struct {
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Path       string `json:"path"`
}

// ArchiveFailed: packaging failed and the user must be told.
type ArchiveFailed struct {
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Error      string `json:"error"`
}

// RelatedIssuesUpdated: related-issue suggestions changed.
type RelatedIssuesUpdated struct {
	Generation  uint64   `json:"generation"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	IssueIDs    []string `json:"issue_ids"`
}

// CorpusRefreshed: a corpus refresh finished.
type CorpusRefreshed struct {
	Outcome string `json:"outcome"`
	Issues  int    `json:"issues"`
	Error   string `json:"error,omitempty"`
}

func (KnownErrorDetected) Kind() string   { return KindKnownError }
func (UnknownErrorDetected) Kind() string { return KindUnknownError }
func (EvidenceDismissed) Kind() string    { return KindDismissed }
func (ReportDrafted) Kind() string        { return KindReportDrafted }
func (ArchiveReady) Kind() string         { return KindArchiveReady }
func (ArchiveFailed) Kind() string        { return KindArchiveFailed }
func (RelatedIssuesUpdated) Kind() string { return KindRelatedUpdated }
func (CorpusRefreshed) Kind() string      { return KindCorpusRefresh }

func (KnownErrorDetected) isIntent()   {}
func (UnknownErrorDetected) isIntent() {}
func (EvidenceDismissed) isIntent()    {}
func (ReportDrafted) isIntent()        {}
func (ArchiveReady) isIntent()         {}
func (ArchiveFailed) isIntent()        {}
func (RelatedIssuesUpdated) isIntent() {}
func (CorpusRefreshed) isIntent()      {}

// ErrUnknownIntent is returned by Dispatch for a type it has no case for.
var ErrUnknownIntent = errors.New("unknown intent")

// Handlers is a table with one handler per intent. Nil entries ignore the intent.
type Handlers struct {
	KnownErrorDetected   func(context.Context, KnownErrorDetected) error
	UnknownErrorDetected func(context.Context, UnknownErrorDetected) error
	EvidenceDismissed    func(context.Context, EvidenceDismissed) error
	ReportDrafted        func(context.Context, ReportDrafted) error
	ArchiveReady         func(context.Context, ArchiveReady) error
	ArchiveFailed        func(context.Context, ArchiveFailed) error
	RelatedIssuesUpdated func(context.Context, RelatedIssuesUpdated) error
	CorpusRefreshed      func(context.Context, CorpusRefreshed) error
}

// Dispatch calls the handler for in.
func (h Handlers) Dispatch(ctx context.Context, in Intent) error {
	switch v := in.(type) {
	case KnownErrorDetected:
		return call(ctx, h.KnownErrorDetected, v)
	case UnknownErrorDetected:
		return call(ctx, h.UnknownErrorDetected, v)
	case EvidenceDismissed:
		return call(ctx, h.EvidenceDismissed, v)
	case ReportDrafted:
		return call(ctx, h.ReportDrafted, v)
	case ArchiveReady:
		return call(ctx, h.ArchiveReady, v)
	case ArchiveFailed:
		return call(ctx, h.ArchiveFailed, v)
	case RelatedIssuesUpdated:
		return call(ctx, h.RelatedIssuesUpdated, v)
	case CorpusRefreshed:
		return call(ctx, h.CorpusRefreshed, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
}

// Handler adapts the table to a bus handler.
func (h Handlers) Handler() Handler {
	return func(ctx context.Context, rec Record) error {
		return h.Dispatch(ctx, rec.Intent)
	}
}

func call[T Intent](ctx context.Context, fn func(context.Context, T) error, v T) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, v)
}
