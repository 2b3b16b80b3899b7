// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/hostfs"
)

// Dumper writes in-memory state to individual temp JSON files.
type Dumper struct {
	fs     hostfs.FS
	dir    string
	logger *slog.Logger
}

// NewDumper creates a dumper writing into dir.
func NewDumper(fsys hostfs.FS, dir string, logger *slog.Logger) *Dumper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dumper{fs: fsys, dir: dir, logger: logger}
}

// DumpJSON writes v to a fresh temp file and describes it as an evidence file
// named name. The file is closed before it is handed off; on any failure it
// is removed.
func (d *Dumper) DumpJSON(ctx context.Context, prefix, name string, category evidence.Category, v any) (evidence.File, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return evidence.File{}, fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := d.fs.MkdirAll(ctx, d.dir, 0755); err != nil {
		return evidence.File{}, fmt.Errorf("create dump dir: %w", err)
	}
	tmp, err := d.fs.CreateTemp(ctx, d.dir, TempPrefix+prefix+"-*.json")
	if err != nil {
		return evidence.File{}, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		d.discard(ctx, path)
		return evidence.File{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		d.discard(ctx, path)
		return evidence.File{}, fmt.Errorf("close %s: %w", name, err)
	}

	return evidence.File{
		ID:       name,
		Filename: name,
		Path:     path,
		Size:     int64(len(data)),
		Category: category,
	}, nil
}

func (d *Dumper) discard(ctx context.Context, path string) {
	if err := d.fs.Remove(context.WithoutCancel(ctx), path); err != nil {
		d.logger.Warn("failed to remove temp dump", "path", path, "error", err)
	}
}
