// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wingedpig/crashintake/internal/hostfs"
)

// ReapConfig limits the temp files kept between runs.
type ReapConfig struct {
	Dir      string
	MaxAge   time.Duration // Files older than this are removed
	MaxCount int           // Keep at most this many of the newest files (0 = unlimited)
}

// Reap removes archives and state dumps left behind by earlier runs. Only
// files carrying TempPrefix are touched. It returns the number removed.
func Reap(ctx context.Context, fsys hostfs.FS, cfg ReapConfig, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := fsys.ReadDir(ctx, cfg.Dir)
	if err != nil {
		return 0
	}

	type tempFile struct {
		path    string
		modTime time.Time
	}

	var files []tempFile
	cutoff := time.Now().Add(-cfg.MaxAge)
	removed := 0

	remove := func(path string) {
		if err := fsys.Remove(ctx, path); err != nil {
			logger.Warn("failed to reap temp file", "path", path, "error", err)
			return
		}
		removed++
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(cfg.Dir, entry.Name())
		if cfg.MaxAge > 0 && info.ModTime().Before(cutoff) {
			remove(path)
			continue
		}
		files = append(files, tempFile{path: path, modTime: info.ModTime()})
	}

	// Newest first
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	if cfg.MaxCount > 0 && len(files) > cfg.MaxCount {
		for _, f := range files[cfg.MaxCount:] {
			remove(f.path)
		}
	}

	if removed > 0 {
		logger.Info("reaped temp files", "dir", cfg.Dir, "removed", removed)
	}
	return removed
}
