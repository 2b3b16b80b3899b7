// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const dumpKey = "crash-check"

// DumpWatcherConfig configures a DumpWatcher.
type DumpWatcherConfig struct {
	Dir      string
	IsDump   func(name string) bool
	Debounce time.Duration
	// OnDump runs once per burst of new dumps with the last dump seen.
	OnDump func(ctx context.Context, path string)
	Logger *slog.Logger
}

// DumpWatcher watches the crash dump directory and triggers a crash check
// when a new dump appears. Crash handlers tend to write the dump and its
// sidecar log in several steps, so events are debounced.
type DumpWatcher struct {
	cfg       DumpWatcherConfig
	debouncer *Debouncer
	ready     chan struct{}

	mu   sync.Mutex
	last string
}

// NewDumpWatcher creates a watcher. Call Run to start it.
func NewDumpWatcher(cfg DumpWatcherConfig) (*DumpWatcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dump watcher: directory is required")
	}
	if cfg.OnDump == nil {
		return nil, fmt.Errorf("dump watcher: callback is required")
	}
	if cfg.IsDump == nil {
		cfg.IsDump = func(name string) bool { return filepath.Ext(name) == ".dmp" }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DumpWatcher{
		cfg:       cfg,
		debouncer: NewDebouncer(cfg.Debounce),
		ready:     make(chan struct{}),
	}, nil
}

// Ready is closed once the directory is being watched.
func (w *DumpWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. It returns an error only if the
// directory cannot be watched. Run must be called at most once.
func (w *DumpWatcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}
	close(w.ready)
	w.cfg.Logger.Info("watching dump directory", "dir", w.cfg.Dir)

	defer w.debouncer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Warn("dump watcher error", "dir", w.cfg.Dir, "error", err)
		}
	}
}

func (w *DumpWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Renames into the directory arrive as Create.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.cfg.IsDump(filepath.Base(event.Name)) {
		return
	}

	w.mu.Lock()
	w.last = event.Name
	w.mu.Unlock()

	w.debouncer.Schedule(dumpKey, func(gen uint64) {
		if ctx.Err() != nil || gen != w.debouncer.Current(dumpKey) {
			return
		}
		w.mu.Lock()
		path := w.last
		w.mu.Unlock()
		w.cfg.Logger.Info("new crash dump", "path", path)
		w.cfg.OnDump(ctx, path)
	})
}
