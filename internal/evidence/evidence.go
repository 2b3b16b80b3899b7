// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package evidence finds crash artifacts left on disk by a previous session.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/metrics"
)

// Category identifies where an evidence file came from.
type Category string

const (
	CategoryDump           Category = "dump"
	CategorySidecarLog     Category = "sidecar_log"
	CategoryStateSnapshot  Category = "state"
	CategoryApplicationLog Category = "application_log"
	CategoryUserAttachment Category = "user_attachment"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDump, CategorySidecarLog, CategoryStateSnapshot, CategoryApplicationLog, CategoryUserAttachment:
		return true
	}
	return false
}

// File is a candidate evidence file. Values are immutable once created.
type File struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Category Category `json:"category"`
}

// Config holds the scanner locations.
type Config struct {
	PrimaryDir    string // Actively used dump directory, created if absent
	LegacyDir     string // Read-only secondary location
	DumpExt       string // Dump file extension
	SidecarSuffix string // Appended to a dump path to name its sidecar log
}

// Scanner lists dump files and their sidecar logs.
type Scanner struct {
	fs      hostfs.FS
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewScanner creates a scanner. A nil logger uses slog.Default.
func NewScanner(fsys hostfs.FS, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Scanner {
	if cfg.DumpExt == "" {
		cfg.DumpExt = ".dmp"
	}
	if cfg.SidecarSuffix == "" {
		cfg.SidecarSuffix = ".log"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{fs: fsys, cfg: cfg, logger: logger, metrics: m}
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// SidecarPath returns the sidecar log path for a dump.
func (s *Scanner) SidecarPath(dump string) string {
	return dump + s.cfg.SidecarSuffix
}

// IsDump reports whether name has the dump extension.
func (s *Scanner) IsDump(name string) bool {
	return filepath.Ext(name) == s.cfg.DumpExt
}

// Scan returns the dumps in both locations and any sidecar logs next to them.
// It never fails; an unreadable location contributes nothing.
func (s *Scanner) Scan(ctx context.Context) []File {
	defer s.metrics.ScanCompleted()

	if s.cfg.PrimaryDir != "" {
		if err := s.fs.MkdirAll(ctx, s.cfg.PrimaryDir, 0755); err != nil {
			s.warn("ensure primary dump dir", s.cfg.PrimaryDir, err)
		}
	}

	var files []File
	for _, dir := range []string{s.cfg.PrimaryDir, s.cfg.LegacyDir} {
		if dir == "" {
			continue
		}
		files = append(files, s.scanDir(ctx, dir)...)
	}

	dumps := 0
	for _, f := range files {
		if f.Category == CategoryDump {
			dumps++
		}
	}
	s.metrics.EvidenceFound(string(CategoryDump), dumps)
	s.metrics.EvidenceFound(string(CategorySidecarLog), len(files)-dumps)
	return files
}

func (s *Scanner) scanDir(ctx context.Context, dir string) []File {
	entries, err := s.fs.ReadDir(ctx, dir)
	if err != nil {
		s.logger.Debug("dump dir unavailable", "dir", dir, "error", err)
		return nil
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !s.IsDump(entry.Name()) {
			continue
		}
		dump := filepath.Join(dir, entry.Name())
		f, err := Identify(ctx, s.fs, dump, CategoryDump)
		if err != nil {
			// Removed between listing and stat.
			s.logger.Debug("dump vanished", "path", dump, "error", err)
			continue
		}
		files = append(files, f)

		sidecar, err := Identify(ctx, s.fs, s.SidecarPath(dump), CategorySidecarLog)
		if err == nil {
			files = append(files, sidecar)
		}
	}
	return files
}

// DumpPaths returns the paths of the dump files in files, in order.
func (s *Scanner) DumpPaths(files []File) []string {
	var paths []string
	for _, f := range files {
		if f.Category == CategoryDump {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// CollectLogs returns the application log files (*.log) in dir.
func (s *Scanner) CollectLogs(ctx context.Context, dir string) []File {
	entries, err := s.fs.ReadDir(ctx, dir)
	if err != nil {
		s.warn("list application logs", dir, err)
		return nil
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		f, err := Identify(ctx, s.fs, filepath.Join(dir, entry.Name()), CategoryApplicationLog)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	s.metrics.EvidenceFound(string(CategoryApplicationLog), len(files))
	return files
}

// Discard removes each dump and its sidecar log. Failures are logged, not
// returned. It returns the number of files removed.
func (s *Scanner) Discard(ctx context.Context, dumps []string) int {
	removed := 0
	for _, dump := range dumps {
		for _, path := range []string{dump, s.SidecarPath(dump)} {
			exists, err := s.fs.Exists(ctx, path)
			if err != nil {
				s.warn("check evidence", path, err)
				continue
			}
			if !exists {
				continue
			}
			if err := s.fs.Remove(ctx, path); err != nil {
				s.warn("remove evidence", path, err)
				continue
			}
			removed++
		}
	}
	s.logger.Info("crash dumps dismissed", "dumps", len(dumps), "removed", removed)
	return removed
}

func (s *Scanner) warn(op, path string, err error) {
	e := intakeerr.New(intakeerr.KindEvidenceUnavailable, "evidence."+op, path, err)
	s.logger.Warn("evidence unavailable", "op", op, "path", path, "error", e)
}

// Identify stats path and describes it as an evidence file.
func Identify(ctx context.Context, fsys hostfs.FS, path string, category Category) (File, error) {
	info, err := fsys.Stat(ctx, path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return File{
		ID:       name,
		Filename: name,
		Path:     path,
		Size:     info.Size(),
		Category: category,
	}, nil
}
