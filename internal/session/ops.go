// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wingedpig/crashintake/internal/evidence"
)

// SetTitle replaces the title. It fails with ErrImmutable on a locked session.
func (s *Store) SetTitle(title string) (Snapshot, error) {
	return s.update(func(next *Snapshot) (bool, error) {
		if !next.Mutable {
			return false, ErrImmutable
		}
		next.Title = title
		return true, nil
	})
}

// SetMessage replaces the message. It fails with ErrImmutable on a locked session.
func (s *Store) SetMessage(message string) (Snapshot, error) {
	return s.update(func(next *Snapshot) (bool, error) {
		if !next.Mutable {
			return false, ErrImmutable
		}
		next.Message = message
		return true, nil
	})
}

// SetStackTrace replaces the stack trace. It fails with ErrImmutable on a
// locked session.
func (s *Store) SetStackTrace(stack string) (Snapshot, error) {
	return s.update(func(next *Snapshot) (bool, error) {
		if !next.Mutable {
			return false, ErrImmutable
		}
		next.StackTrace = stack
		return true, nil
	})
}

// Annotate replaces the free-text context. Allowed on locked sessions.
func (s *Store) Annotate(text string) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		next.Context = text
		return true, nil
	})
	return snap
}

// SetFingerprint replaces the fingerprint.
func (s *Store) SetFingerprint(fp string) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		next.Fingerprint = fp
		return true, nil
	})
	return snap
}

// SetFingerprintFor sets the fingerprint only if the session is still at
// generation. It reports whether the value was committed.
func (s *Store) SetFingerprintFor(generation uint64, fp string) bool {
	committed := false
	s.update(func(next *Snapshot) (bool, error) {
		if next.Generation != generation {
			return false, nil
		}
		next.Fingerprint = fp
		committed = true
		return true, nil
	})
	return committed
}

// AddFile attaches f. Re-adding the same path replaces the earlier entry; a
// different file whose ID is already taken gets a suffixed ID.
func (s *Store) AddFile(f evidence.File) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		files := copyFiles(next.Files)
		putFile(files, f)
		next.Files = files
		return true, nil
	})
	return snap
}

// AddFiles attaches several files in one commit.
func (s *Store) AddFiles(add []evidence.File) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		if len(add) == 0 {
			return false, nil
		}
		files := copyFiles(next.Files)
		for _, f := range add {
			putFile(files, f)
		}
		next.Files = files
		return true, nil
	})
	return snap
}

// AddFilesFor attaches files only if the session is still at generation.
// It reports whether the files were committed.
func (s *Store) AddFilesFor(generation uint64, add []evidence.File) bool {
	committed := false
	s.update(func(next *Snapshot) (bool, error) {
		if next.Generation != generation || len(add) == 0 {
			return false, nil
		}
		files := copyFiles(next.Files)
		for _, f := range add {
			putFile(files, f)
		}
		next.Files = files
		committed = true
		return true, nil
	})
	return committed
}

// RemoveFile detaches the file with the given ID.
func (s *Store) RemoveFile(id string) (Snapshot, error) {
	return s.update(func(next *Snapshot) (bool, error) {
		if _, ok := next.Files[id]; !ok {
			return false, ErrFileNotFound
		}
		files := copyFiles(next.Files)
		delete(files, id)
		next.Files = files
		return true, nil
	})
}

// SetArchivePath records the packaged archive.
func (s *Store) SetArchivePath(path string) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		next.ArchivePath = path
		return true, nil
	})
	return snap
}

// SetArchivePathFor records the archive only if the session is still at
// generation. It reports whether the value was committed.
func (s *Store) SetArchivePathFor(generation uint64, path string) bool {
	committed := false
	s.update(func(next *Snapshot) (bool, error) {
		if next.Generation != generation {
			return false, nil
		}
		next.ArchivePath = path
		committed = true
		return true, nil
	})
	return committed
}

// Clear resets the report. It starts a new generation and is the only way
// a locked session becomes editable again.
func (s *Store) Clear() Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		*next = *s.empty(next.Generation + 1)
		return true, nil
	})
	return snap
}

// Begin clears the report and pre-populates it from d in a single commit.
func (s *Store) Begin(d Draft) Snapshot {
	snap, _ := s.update(func(next *Snapshot) (bool, error) {
		fresh := s.empty(next.Generation + 1)
		fresh.Title = d.Title
		fresh.Message = d.Message
		fresh.StackTrace = d.StackTrace
		fresh.Context = d.Context
		fresh.Fingerprint = d.Fingerprint
		fresh.Mutable = !d.Locked
		if d.Origin != "" {
			fresh.Origin = d.Origin
		}
		for _, f := range d.Files {
			putFile(fresh.Files, f)
		}
		*next = *fresh
		return true, nil
	})
	return snap
}

// putFile stores f keyed by a unique ID. Files are identified by path: an
// entry for the same path is replaced in place, while same-named files from
// different directories are kept apart as name-1.ext, name-2.ext and so on.
// State snapshots are regenerated on every collection, so a newer snapshot
// replaces the older one with the same ID.
func putFile(files map[string]evidence.File, f evidence.File) {
	if f.ID == "" {
		f.ID = filepath.Base(f.Path)
	}
	for id, existing := range files {
		if samePath(existing.Path, f.Path) {
			f.ID = id
			files[id] = f
			return
		}
	}
	existing, taken := files[f.ID]
	if !taken || (existing.Category == evidence.CategoryStateSnapshot && f.Category == evidence.CategoryStateSnapshot) {
		files[f.ID] = f
		return
	}
	ext := filepath.Ext(f.ID)
	stem := strings.TrimSuffix(f.ID, ext)
	for i := 1; ; i++ {
		alt := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, taken := files[alt]; !taken {
			f.ID = alt
			files[alt] = f
			return
		}
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
