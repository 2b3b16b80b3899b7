// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package corpus

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wingedpig/crashintake/internal/hostfs"
)

// Cache is the local copy of the corpus document.
type Cache struct {
	fs   hostfs.FS
	path string
}

// NewCache creates a cache stored at path.
func NewCache(fsys hostfs.FS, path string) *Cache {
	return &Cache{fs: fsys, path: path}
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Load reads and decodes the cached document.
func (c *Cache) Load(ctx context.Context) ([]Issue, error) {
	data, err := c.fs.ReadFile(ctx, c.path)
	if err != nil {
		return nil, err
	}
	return ParseIssues(data)
}

// Replace validates data and swaps it in as the cached document. A failed
// replace leaves the previous cache untouched and no temp file behind.
func (c *Cache) Replace(ctx context.Context, data []byte) (int, error) {
	issues, err := ParseIssues(data)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(c.path)
	if err := c.fs.MkdirAll(ctx, dir, 0755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := c.fs.CreateTemp(ctx, dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// cleanup is cleared once the rename has succeeded
	cleanup := true
	defer func() {
		if cleanup {
			_ = c.fs.Remove(context.WithoutCancel(ctx), tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := c.fs.Rename(ctx, tmpPath, c.path); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}
	cleanup = false
	return len(issues), nil
}
