// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app builds the crash intake components from configuration and
// runs them as one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/crashintake/internal/api"
	"github.com/wingedpig/crashintake/internal/attach"
	"github.com/wingedpig/crashintake/internal/classify"
	"github.com/wingedpig/crashintake/internal/config"
	"github.com/wingedpig/crashintake/internal/corpus"
	"github.com/wingedpig/crashintake/internal/crashcheck"
	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/events"
	"github.com/wingedpig/crashintake/internal/evidence"
	"github.com/wingedpig/crashintake/internal/hostfs"
	"github.com/wingedpig/crashintake/internal/intake"
	"github.com/wingedpig/crashintake/internal/logging"
	"github.com/wingedpig/crashintake/internal/metrics"
	"github.com/wingedpig/crashintake/internal/session"
	"github.com/wingedpig/crashintake/internal/watcher"
)

// dumpSettle is how long the dump directory must be quiet before a new
// dump is checked. Crash handlers write the dump and its log separately.
const dumpSettle = 2 * time.Second

// App is the main application container.
type App struct {
	mu sync.Mutex

	configPath string // Path of the loaded config file, "" for defaults
	version    string
	config     *config.Config
	logger     *slog.Logger
	listener   net.Listener
	probe      environment.Probe

	fs          hostfs.FS
	metrics     *metrics.Metrics
	bus         *events.MemoryBus
	store       *session.Store
	scanner     *evidence.Scanner
	matcher     *corpus.Matcher
	assembler   *attach.Assembler
	flow        *crashcheck.Flow
	intake      *intake.Service
	system      environment.SystemInfo
	dumpWatcher *watcher.DumpWatcher
	apiServer   *api.Server

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	LogLevel   string // Overrides logging.level
	LogFormat  string // Overrides logging.format
	Version    string
	// Listener, if set, is served instead of listening on Host:Port.
	Listener net.Listener
	// Probe replaces the host module probe used by the classifier.
	Probe environment.Probe
}

// New loads and validates the configuration and initialises logging.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, path, err := config.NewLoader().Resolve(ctx, opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}
	if opts.Version != "" {
		cfg.App.Version = opts.Version
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logger := logging.New("app")
	if path != "" {
		logger.Info("loaded config", "path", path)
	} else {
		logger.Info("no config file found, using defaults")
	}

	return &App{
		configPath: path,
		version:    cfg.App.Version,
		config:     cfg,
		logger:     logger,
		listener:   opts.Listener,
		probe:      opts.Probe,
		done:       make(chan struct{}),
	}, nil
}

// Initialize builds every component. It does not start background work.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.config

	app.fs = hostfs.NewOS()
	app.metrics = metrics.New(metrics.DefaultNamespace)
	app.system = environment.Collect(cfg.App.Version)

	app.bus = events.NewMemoryBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    cfg.EventHistoryMaxAge(),
		Logger:           logging.New("events"),
		Metrics:          app.metrics,
	})
	app.store = session.NewStore()
	if _, err := app.bus.Subscribe("*", app.notices().Handler()); err != nil {
		return fmt.Errorf("subscribe notices: %w", err)
	}

	app.scanner = evidence.NewScanner(app.fs, evidence.Config{
		PrimaryDir:    cfg.Evidence.PrimaryDir,
		LegacyDir:     cfg.Evidence.LegacyDir,
		DumpExt:       cfg.Evidence.DumpExt,
		SidecarSuffix: cfg.Evidence.SidecarSuffix,
	}, logging.New("evidence"), app.metrics)

	probe := app.probe
	if probe == nil {
		probe = environment.NewProbe()
	}
	classifier := classify.New(app.fs, probe, classify.Config{
		SidecarSuffix:    cfg.Evidence.SidecarSuffix,
		DependencyModule: cfg.Classifier.DependencyModulePattern,
	}, logging.New("classify"), app.metrics)

	app.matcher = corpus.NewMatcher(
		corpus.NewCache(app.fs, cfg.Corpus.CachePath),
		corpus.NewHTTPSource(cfg.Corpus.URL, cfg.CorpusTimeout(), cfg.Corpus.MaxBytes),
		nil, logging.New("corpus"), app.metrics)

	app.assembler = attach.NewAssembler(app.fs, attach.Config{
		Dir:         cfg.Attachments.TempDir,
		Format:      cfg.Attachments.Format,
		Level:       cfg.Attachments.Level,
		MaxFileSize: cfg.Attachments.MaxFileSize,
	}, logging.New("attach"), app.metrics)

	app.flow = crashcheck.New(app.fs, app.scanner, classifier, app.store, app.bus, logging.New("crashcheck"))

	app.intake = intake.New(intake.Deps{
		FS:        app.fs,
		Store:     app.store,
		Scanner:   app.scanner,
		Matcher:   app.matcher,
		Assembler: app.assembler,
		Dumper:    attach.NewDumper(app.fs, cfg.Attachments.TempDir, logging.New("attach")),
		Flow:      app.flow,
		Bus:       app.bus,
		Metrics:   app.metrics,
		Logger:    logging.New("intake"),
	}, intake.Config{
		Debounce: cfg.SessionDebounce(),
		LogDir:   cfg.Evidence.LogDir,
	})
	app.intake.AddStateSource("persistent", app.persistentState)
	app.intake.AddStateSource("settings", app.settingsState)

	app.apiServer = api.NewServer(api.ServerConfig{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, api.Dependencies{
		Intake:  app.intake,
		Metrics: app.metrics,
		System:  app.system,
		Logger:  logging.New("api"),
	})

	return nil
}

// notices logs the intents a user would be shown.
func (app *App) notices() events.Handlers {
	log := logging.New("notice")
	return events.Handlers{
		KnownErrorDetected: func(_ context.Context, in events.KnownErrorDetected) error {
			log.Warn("previous session crashed", "category", in.Category, "code", in.Code, "help", in.HelpURL)
			return nil
		},
		UnknownErrorDetected: func(_ context.Context, in events.UnknownErrorDetected) error {
			log.Warn("previous session crashed with an unknown error", "codes", in.Codes, "dumps", len(in.Dumps))
			return nil
		},
		ReportDrafted: func(_ context.Context, in events.ReportDrafted) error {
			log.Info("report drafted", "origin", in.Origin, "files", in.Files, "locked", in.Locked)
			return nil
		},
		ArchiveReady: func(_ context.Context, in events.ArchiveReady) error {
			log.Info("report archive ready", "path", in.Path)
			return nil
		},
		ArchiveFailed: func(_ context.Context, in events.ArchiveFailed) error {
			log.Error("report archive failed", "error", in.Error)
			return nil
		},
	}
}

// persistentState is what survives between runs: the host description and
// the crash check outcome.
func (app *App) persistentState(context.Context) (any, error) {
	return map[string]any{
		"system":     app.system,
		"crashcheck": app.flow.Decision(),
	}, nil
}

// settingsState is the effective configuration.
func (app *App) settingsState(context.Context) (any, error) {
	return map[string]any{
		"config_path": app.configPath,
		"config":      app.config,
	}, nil
}

// Config returns the effective configuration.
func (app *App) Config() *config.Config { return app.config }

// Intake returns the intake service. Valid after Initialize.
func (app *App) Intake() *intake.Service { return app.intake }

// Matcher returns the corpus matcher. Valid after Initialize.
func (app *App) Matcher() *corpus.Matcher { return app.matcher }

// Assembler returns the archive assembler. Valid after Initialize.
func (app *App) Assembler() *attach.Assembler { return app.assembler }

// Start reaps stale temp files and starts the background work: corpus
// refresh, the startup crash check, the dump watcher and the API server.
func (app *App) Start(ctx context.Context) error {
	cfg := app.config
	ctx, cancel := context.WithCancel(ctx)
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	if n := attach.Reap(ctx, app.fs, attach.ReapConfig{Dir: cfg.Attachments.TempDir, MaxAge: cfg.ReapAfter()}, app.logger); n > 0 {
		app.logger.Info("removed stale temp files", "count", n)
	}

	app.intake.Start(ctx)

	app.goRun(func() {
		app.intake.RunCorpusRefresh(ctx, cfg.CorpusRefreshInterval())
	})

	// The startup check creates the primary dump directory, which the
	// watcher needs.
	if d, err := app.intake.CheckCrash(ctx); err != nil {
		app.logger.Warn("startup crash check failed", "error", err)
	} else {
		app.logger.Info("startup crash check", "state", d.State, "dumps", len(d.Evidence))
	}

	if cfg.Evidence.IsWatching() {
		if err := app.startDumpWatcher(ctx); err != nil {
			app.logger.Warn("dump watcher disabled", "dir", cfg.Evidence.PrimaryDir, "error", err)
		}
	}

	app.goRun(func() {
		var err error
		if app.listener != nil {
			err = app.apiServer.Serve(app.listener)
		} else {
			err = app.apiServer.ListenAndServe()
		}
		if err != nil {
			app.logger.Error("API server error", "error", err)
			app.Stop()
		}
	})

	return nil
}

func (app *App) startDumpWatcher(ctx context.Context) error {
	if err := app.fs.MkdirAll(ctx, app.config.Evidence.PrimaryDir, 0755); err != nil {
		return err
	}
	w, err := watcher.NewDumpWatcher(watcher.DumpWatcherConfig{
		Dir:      app.config.Evidence.PrimaryDir,
		IsDump:   app.scanner.IsDump,
		Debounce: dumpSettle,
		OnDump:   app.onDump,
		Logger:   logging.New("watcher"),
	})
	if err != nil {
		return err
	}
	app.dumpWatcher = w
	app.goRun(func() {
		if err := w.Run(ctx); err != nil {
			app.logger.Warn("dump watcher stopped", "error", err)
		}
	})
	return nil
}

func (app *App) onDump(ctx context.Context, path string) {
	d, err := app.intake.CheckCrash(ctx)
	if errors.Is(err, crashcheck.ErrInvalidTransition) {
		app.logger.Debug("crash check already running", "dump", path)
		return
	}
	if err != nil {
		app.logger.Warn("crash check failed", "dump", path, "error", err)
		return
	}
	app.logger.Info("crash check", "dump", path, "state", d.State)
}

func (app *App) goRun(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		fn()
	}()
}

// Run starts the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		app.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		app.logger.Info("context cancelled, shutting down")
	case <-app.done:
		app.logger.Info("shutdown requested")
	}

	return app.Shutdown(context.Background())
}

// Shutdown stops the API server and the background work.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error
	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shut down API server: %w", err))
		}
	}
	if app.cancel != nil {
		app.cancel()
	}
	if app.intake != nil {
		app.intake.Close()
	}

	waited := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-shutdownCtx.Done():
		errs = append(errs, errors.New("timed out waiting for background work"))
	}

	if app.bus != nil {
		app.bus.Close()
	}

	app.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// Stop signals Run to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
