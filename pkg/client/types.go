// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"time"
)

// File is an evidence file attached to a report.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	// Category is one of "dump", "sidecar_log", "state", "application_log"
	// or "user_attachment".
	Category string `json:"category"`
}

// Session is a snapshot of the report being drafted.
type Session struct {
	ID          string          `json:"id"`
	Generation  uint64          `json:"generation"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	StackTrace  string          `json:"stack_trace"`
	Context     string          `json:"context"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Files       map[string]File `json:"files"`
	// Mutable is false for reports started by a trigger.
	Mutable     bool      `json:"mutable"`
	ArchivePath string    `json:"archive_path,omitempty"`
	Origin      string    `json:"origin"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Rejection is a path that could not be attached.
type Rejection struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// AddFilesResult is the session after attaching files.
type AddFilesResult struct {
	Session  Session     `json:"session"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// ReportFilesResult lists the generated report files. Warnings name sources
// that could not be written; the other files are still attached.
type ReportFilesResult struct {
	Files    []File   `json:"files"`
	Warnings []string `json:"warnings,omitempty"`
}

// Issue is a known issue from the corpus.
type Issue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Fingerprint string `json:"hash,omitempty"`
	URL         string `json:"url"`
}

// Related is the set of known issues related to a session generation.
type Related struct {
	Generation  uint64  `json:"generation"`
	Fingerprint string  `json:"fingerprint"`
	Issues      []Issue `json:"issues"`
}

// Classification is the classifier's verdict on the crash dumps.
type Classification struct {
	Category  string   `json:"category"`
	Code      string   `json:"code,omitempty"`
	Codes     []string `json:"codes,omitempty"`
	Ambiguous bool     `json:"ambiguous,omitempty"`
}

// Decision is the outcome of a crash check.
type Decision struct {
	// State is one of "idle", "scanning", "no_evidence", "classifying",
	// "known_error", "unknown_error", "user_dismissed" or
	// "user_requested_report".
	State       string         `json:"state"`
	Result      Classification `json:"result"`
	Evidence    []File         `json:"evidence,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	HelpURL     string         `json:"help_url,omitempty"`
}

// CrashInfo explains a pending crash notice.
type CrashInfo struct {
	Known       bool   `json:"known"`
	Category    string `json:"category"`
	Explanation string `json:"explanation"`
	HelpURL     string `json:"help_url"`
}

// ReportStarted is returned when a crash notice is turned into a report.
type ReportStarted struct {
	Files   []File  `json:"files"`
	Session Session `json:"session"`
}

// RefreshResult describes a corpus refresh. A failed refresh is reported in
// Error, not as a request error.
type RefreshResult struct {
	Outcome    string `json:"outcome"`
	Issues     int    `json:"issues"`
	DurationMS int64  `json:"duration_ms"`
	Shared     bool   `json:"shared"`
	Error      string `json:"error,omitempty"`
}

// Event is a published intent.
type Event struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Intent    json.RawMessage `json:"intent"`
}

// SystemInfo describes the host.
type SystemInfo struct {
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Architecture    string `json:"architecture"`
	AppVersion      string `json:"app_version"`
	Process         string `json:"process"`
}
