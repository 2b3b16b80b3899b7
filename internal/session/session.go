// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session holds the in-progress report as a sequence of immutable
// snapshots.
package session

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wingedpig/crashintake/internal/evidence"
)

// Origin records what started the current report.
type Origin string

const (
	OriginUser     Origin = "user"
	OriginCrash    Origin = "crash_check"
	OriginFeedback Origin = "feedback_trigger"
	OriginLogError Origin = "log_error"
)

var (
	// ErrImmutable is returned when editing core fields of a session that was
	// pre-populated by an automated trigger.
	ErrImmutable = errors.New("session is not editable")

	// ErrFileNotFound is returned by RemoveFile for an unknown file ID.
	ErrFileNotFound = errors.New("file not attached")
)

// Snapshot is one committed state of the report. Snapshots are never
// modified after publication; the Files map must be treated as read-only.
type Snapshot struct {
	ID          string                   `json:"id"`
	Generation  uint64                   `json:"generation"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	StackTrace  string                   `json:"stack_trace"`
	Context     string                   `json:"context"`
	Fingerprint string                   `json:"fingerprint,omitempty"`
	Files       map[string]evidence.File `json:"files"`
	Mutable     bool                     `json:"mutable"`
	ArchivePath string                   `json:"archive_path,omitempty"`
	Origin      Origin                   `json:"origin"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// FileList returns the attached files ordered by ID.
func (s Snapshot) FileList() []evidence.File {
	files := make([]evidence.File, 0, len(s.Files))
	for _, f := range s.Files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ID < files[j].ID
	})
	return files
}

// Draft pre-populates a new report.
type Draft struct {
	Title       string
	Message     string
	StackTrace  string
	Context     string
	Fingerprint string
	Files       []evidence.File
	Locked      bool // title and message may not be edited
	Origin      Origin
}

// Store publishes snapshots. Reads are lock-free; writes are serialised.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	subMu   sync.RWMutex
	subs    map[int]func(Snapshot)
	nextSub int

	now func() time.Time
}

// NewStore creates a store holding an empty, editable report.
func NewStore() *Store {
	s := &Store{
		subs: make(map[int]func(Snapshot)),
		now:  time.Now,
	}
	s.current.Store(s.empty(1))
	return s
}

func (s *Store) empty(generation uint64) *Snapshot {
	return &Snapshot{
		ID:         uuid.New().String(),
		Generation: generation,
		Files:      map[string]evidence.File{},
		Mutable:    true,
		Origin:     OriginUser,
		UpdatedAt:  s.now(),
	}
}

// Get returns the latest committed snapshot.
func (s *Store) Get() Snapshot {
	return *s.current.Load()
}

// Generation returns the current generation.
func (s *Store) Generation() uint64 {
	return s.current.Load().Generation
}

// Subscribe registers fn to be called with every committed snapshot. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// update applies fn to a copy of the current snapshot and publishes it.
// If fn returns false the current snapshot is kept and nothing is published.
func (s *Store) update(fn func(next *Snapshot) (bool, error)) (Snapshot, error) {
	s.mu.Lock()
	cur := s.current.Load()
	next := *cur
	changed, err := fn(&next)
	if err != nil || !changed {
		s.mu.Unlock()
		return *cur, err
	}
	next.UpdatedAt = s.now()
	s.current.Store(&next)
	s.mu.Unlock()

	s.notify(next)
	return next, nil
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func copyFiles(files map[string]evidence.File) map[string]evidence.File {
	out := make(map[string]evidence.File, len(files)+1)
	for k, v := range files {
		out[k] = v
	}
	return out
}
