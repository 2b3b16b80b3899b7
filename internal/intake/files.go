// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/session"
)

// EventLogName is the attachment holding the recent intent history.
const EventLogName = "event-log.json"

// Rejection is a path AttachFiles could not attach.
type Rejection struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// AttachFiles attaches files the user picked. Paths that cannot be read are
// skipped and returned as rejections.
func (s *Service) AttachFiles(ctx context.Context, paths []string) (session.Snapshot, []Rejection) {
	var (
		files    []evidence.File
		rejected []Rejection
	)
	for _, path := range paths {
		f, err := evidence.Identify(ctx, s.deps.FS, path, evidence.CategoryUserAttachment)
		if err != nil {
			e := intakeerr.New(intakeerr.KindEvidenceUnavailable, "intake.AttachFiles", path, err)
			s.logger.Warn("attachment unavailable", "path", path, "error", e)
			rejected = append(rejected, Rejection{Path: path, Error: e.Error()})
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return s.deps.Store.Get(), rejected
	}
	return s.deps.Store.AddFiles(files), rejected
}

// GenerateReportFiles collects everything a report should carry and
// attaches it to the current session: the recent intent history, a JSON
// dump of every state source, the crash dumps with their sidecar logs, and
// the application logs. Files that cannot be produced are skipped; their
// errors are joined into the returned error. The attached files are
// returned even when err is non-nil.
func (s *Service) GenerateReportFiles(ctx context.Context) ([]evidence.File, error) {
	gen := s.deps.Store.Generation()

	s.mu.Lock()
	states := append([]namedState(nil), s.states...)
	s.mu.Unlock()

	// Index 0 is the intent history, then one slot per state source.
	dumped := make([]*evidence.File, 1+len(states))
	var (
		errMu sync.Mutex
		errs  []error
	)
	fail := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		f, err := s.dumpHistory(gctx)
		if err != nil {
			fail(err)
			return nil
		}
		dumped[0] = &f
		return nil
	})
	for i, st := range states {
		g.Go(func() error {
			f, err := s.dumpState(gctx, st)
			if err != nil {
				fail(err)
				return nil
			}
			dumped[i+1] = &f
			return nil
		})
	}
	// Workers never fail the group; errors are collected above.
	_ = g.Wait()

	var files []evidence.File
	for _, f := range dumped {
		if f != nil {
			files = append(files, *f)
		}
	}
	if s.deps.Scanner != nil {
		files = append(files, s.deps.Scanner.Scan(ctx)...)
		if s.cfg.LogDir != "" {
			files = append(files, s.deps.Scanner.CollectLogs(ctx, s.cfg.LogDir)...)
		}
	}

	files = s.stillPresent(ctx, files)
	if err := ctx.Err(); err != nil {
		s.discardDumps(ctx, dumped)
		return nil, err
	}
	if len(files) > 0 && !s.deps.Store.AddFilesFor(gen, files) {
		s.discardDumps(ctx, dumped)
		return nil, fmt.Errorf("attach report files: %w", ErrStale)
	}
	s.logger.Info("report files attached", "files", len(files), "failed", len(errs))
	return files, errors.Join(errs...)
}

func (s *Service) dumpHistory(ctx context.Context) (evidence.File, error) {
	var records []events.Record
	if s.deps.Bus != nil {
		var err error
		records, err = s.deps.Bus.History(events.Filter{})
		if err != nil {
			return evidence.File{}, fmt.Errorf("read intent history: %w", err)
		}
	}
	if records == nil {
		records = []events.Record{}
	}
	return s.deps.Dumper.DumpJSON(ctx, "events", EventLogName, evidence.CategoryStateSnapshot, records)
}

func (s *Service) dumpState(ctx context.Context, st namedState) (evidence.File, error) {
	v, err := st.source(ctx)
	if err != nil {
		return evidence.File{}, fmt.Errorf("collect %s state: %w", st.name, err)
	}
	return s.deps.Dumper.DumpJSON(ctx, st.name, st.name+".json", evidence.CategoryStateSnapshot, v)
}

// discardDumps removes state dumps that were never handed to the session.
func (s *Service) discardDumps(ctx context.Context, dumped []*evidence.File) {
	for _, f := range dumped {
		if f == nil {
			continue
		}
		if err := s.deps.FS.Remove(context.WithoutCancel(ctx), f.Path); err != nil {
			s.logger.Warn("failed to remove state dump", "path", f.Path, "error", err)
		}
	}
}

// stillPresent re-checks each file and drops the ones that vanished.
func (s *Service) stillPresent(ctx context.Context, files []evidence.File) []evidence.File {
	kept := files[:0]
	for _, f := range files {
		current, err := evidence.Identify(ctx, s.deps.FS, f.Path, f.Category)
		if err != nil {
			s.logger.Warn("report file unavailable", "path", f.Path, "error", err)
			continue
		}
		// Keep the display name chosen when the file was produced.
		current.ID, current.Filename = f.ID, f.Filename
		kept = append(kept, current)
	}
	return kept
}

// GenerateArchive packs the session's files into one archive and records
// its path on the session. With no files it returns "" and no error.
// Assembly failures are returned and announced with ArchiveFailed.
func (s *Service) GenerateArchive(ctx context.Context) (string, error) {
	snap := s.deps.Store.Get()
	path, err := s.deps.Assembler.Assemble(ctx, snap.FileList())
	if err != nil {
		s.publish(ctx, events.ArchiveFailed{
			SessionID:  snap.ID,
			Generation: snap.Generation,
			Error:      err.Error(),
		})
		return "", err
	}
	if path == "" {
		return "", nil
	}

	if !s.deps.Store.SetArchivePathFor(snap.Generation, path) {
		if rmErr := s.deps.FS.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
			s.logger.Warn("failed to remove stale archive", "path", path, "error", rmErr)
		}
		return "", fmt.Errorf("record archive: %w", ErrStale)
	}
	s.publish(ctx, events.ArchiveReady{
		SessionID:  snap.ID,
		Generation: snap.Generation,
		Path:       path,
	})
	return path, nil
}
