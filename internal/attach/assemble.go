// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package attach validates evidence files and packs them into one archive.
package attach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/metrics"
)

// TempPrefix starts the name of every temp file this package creates.
const TempPrefix = "crashintake-"

// Config holds assembler settings.
type Config struct {
	Dir         string // Where archives are created
	Format      string // FormatZip or FormatTarZst
	Level       int    // Compression level
	MaxFileSize int64  // Files larger than this are excluded
}

// Assembler packs evidence files into a single archive.
type Assembler struct {
	fs      hostfs.FS
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAssembler creates an assembler.
func NewAssembler(fsys hostfs.FS, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Assembler {
	if cfg.Format == "" {
		cfg.Format = FormatZip
	}
	if cfg.Level == 0 {
		cfg.Level = 6
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 1 << 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{fs: fsys, cfg: cfg, logger: logger, metrics: m}
}

// candidate is a validated input with its archive entry name.
type candidate struct {
	file  evidence.File
	path  string
	entry string
}

// Assemble writes the valid subset of files to a new archive and returns its
// path. It returns "" with a nil error when there is nothing to pack. On
// failure no archive is left behind and the error is KindAssemblyFailed.
func (a *Assembler) Assemble(ctx context.Context, files []evidence.File) (string, error) {
	start := time.Now()
	if len(files) == 0 {
		a.metrics.ArchiveAssembled("empty", time.Since(start))
		return "", nil
	}

	candidates := a.validate(ctx, files)
	if len(candidates) == 0 {
		a.metrics.ArchiveAssembled("empty", time.Since(start))
		return "", nil
	}

	path, written, err := a.write(ctx, candidates)
	if err != nil {
		a.metrics.ArchiveAssembled("failed", time.Since(start))
		return "", intakeerr.New(intakeerr.KindAssemblyFailed, "attach.Assemble", "create archive", err)
	}
	if written == 0 {
		a.metrics.ArchiveAssembled("empty", time.Since(start))
		return "", nil
	}

	a.metrics.ArchiveAssembled("ok", time.Since(start))
	a.logger.Info("archive assembled", "path", path, "files", written, "format", a.cfg.Format)
	return path, nil
}

// validate drops files that are missing, not regular, too large or listed
// twice, and assigns each survivor a unique entry name.
func (a *Assembler) validate(ctx context.Context, files []evidence.File) []candidate {
	seenPath := make(map[string]bool)
	usedName := make(map[string]bool)

	var out []candidate
	for _, f := range files {
		path, err := filepath.Abs(f.Path)
		if err != nil {
			path = filepath.Clean(f.Path)
		}
		if seenPath[path] {
			continue
		}
		seenPath[path] = true

		info, err := a.fs.Stat(ctx, path)
		if err != nil {
			a.logger.Debug("excluding attachment", "path", path, "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			a.logger.Debug("excluding attachment", "path", path, "reason", "not a regular file")
			continue
		}
		if info.Size() > a.cfg.MaxFileSize {
			a.logger.Warn("excluding attachment", "path", path, "size", info.Size(), "max", a.cfg.MaxFileSize)
			continue
		}

		name := f.Filename
		if name == "" {
			name = filepath.Base(path)
		}
		out = append(out, candidate{file: f, path: path, entry: uniqueName(name, usedName)})
	}
	return out
}

// uniqueName returns name, or name with a numeric suffix if already used.
func uniqueName(name string, used map[string]bool) string {
	name = filepath.Base(filepath.ToSlash(name))
	if !used[name] {
		used[name] = true
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		alt := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !used[alt] {
			used[alt] = true
			return alt
		}
	}
}

func (a *Assembler) write(ctx context.Context, candidates []candidate) (path string, written int, err error) {
	if err := a.fs.MkdirAll(ctx, a.cfg.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := a.fs.CreateTemp(ctx, a.cfg.Dir, TempPrefix+"report-*"+Extension(a.cfg.Format))
	if err != nil {
		return "", 0, fmt.Errorf("create temp archive: %w", err)
	}
	path = tmp.Name()

	tmpOpen := true
	defer func() {
		if tmpOpen {
			tmp.Close()
		}
		if err != nil || written == 0 {
			if rmErr := a.fs.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
				a.logger.Warn("failed to remove partial archive", "path", path, "error", rmErr)
			}
			path = ""
		}
	}()

	aw, err := newArchiveWriter(a.cfg.Format, a.cfg.Level, tmp)
	if err != nil {
		return path, 0, err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			aw.Close()
			return path, written, err
		}
		ok, err := a.addFile(ctx, aw, c)
		if err != nil {
			aw.Close()
			return path, written, fmt.Errorf("add %s: %w", c.entry, err)
		}
		if ok {
			written++
		}
	}

	if err := aw.Close(); err != nil {
		return path, written, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return path, written, fmt.Errorf("sync archive: %w", err)
	}
	tmpOpen = false
	if err := tmp.Close(); err != nil {
		return path, written, fmt.Errorf("close archive: %w", err)
	}
	return path, written, nil
}

// addFile streams one file into the archive. It returns false without error
// if the file vanished after validation.
func (a *Assembler) addFile(ctx context.Context, aw archiveWriter, c candidate) (bool, error) {
	f, err := a.fs.Open(ctx, c.path)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		a.logger.Debug("attachment vanished", "path", c.path, "error", err)
		return false, nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if err := aw.add(c.entry, info, &ctxReader{ctx: ctx, r: f}); err != nil {
		return false, err
	}
	return true, nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
