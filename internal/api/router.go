// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api serves the report intake to the report UI over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wingedpig/crashintake/internal/api/handlers"
	"github.com/wingedpig/crashintake/internal/api/middleware"
	"github.com/wingedpig/crashintake/internal/api/version"
	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/intake"
	"github.com/wingedpig/crashintake/internal/metrics"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Intake  *intake.Service
	Metrics *metrics.Metrics       // Served on /metrics
	System  environment.SystemInfo // Host description for report bodies
	Logger  *slog.Logger
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS)

	r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(version.Middleware)

	// Session handlers
	sessionHandler := handlers.NewSessionHandler(deps.Intake)
	api.HandleFunc("/session", sessionHandler.Get).Methods("GET")
	api.HandleFunc("/session/title", sessionHandler.SetTitle).Methods("PUT")
	api.HandleFunc("/session/message", sessionHandler.SetMessage).Methods("PUT")
	api.HandleFunc("/session/stacktrace", sessionHandler.SetStackTrace).Methods("PUT")
	api.HandleFunc("/session/annotate", sessionHandler.Annotate).Methods("POST")
	api.HandleFunc("/session/files", sessionHandler.AddFiles).Methods("POST")
	api.HandleFunc("/session/files/{id}", sessionHandler.RemoveFile).Methods("DELETE")
	api.HandleFunc("/session/clear", sessionHandler.Clear).Methods("POST")
	api.HandleFunc("/session/report-files", sessionHandler.ReportFiles).Methods("POST")
	api.HandleFunc("/session/archive", sessionHandler.Archive).Methods("POST")
	api.HandleFunc("/session/related", sessionHandler.Related).Methods("GET")

	// Corpus handlers
	corpusHandler := handlers.NewCorpusHandler(deps.Intake)
	api.HandleFunc("/corpus/refresh", corpusHandler.Refresh).Methods("POST")

	// Crash check handlers
	crashHandler := handlers.NewCrashCheckHandler(deps.Intake)
	api.HandleFunc("/crashcheck", crashHandler.Get).Methods("GET")
	api.HandleFunc("/crashcheck", crashHandler.Run).Methods("POST")
	api.HandleFunc("/crashcheck/more", crashHandler.More).Methods("GET")
	api.HandleFunc("/crashcheck/dismiss", crashHandler.Dismiss).Methods("POST")
	api.HandleFunc("/crashcheck/report", crashHandler.Report).Methods("POST")

	// Host triggers
	triggerHandler := handlers.NewTriggerHandler(deps.Intake)
	api.HandleFunc("/triggers/feedback", triggerHandler.Feedback).Methods("POST")
	api.HandleFunc("/triggers/log-error", triggerHandler.LogError).Methods("POST")

	// Event handlers
	eventHandler := handlers.NewEventHandler(deps.Intake.Bus(), logger)
	api.HandleFunc("/events", eventHandler.History).Methods("GET")
	api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")

	// Report body handlers
	reportHandler := handlers.NewReportHandler(deps.Intake, deps.System)
	api.HandleFunc("/report/render", reportHandler.Render).Methods("POST")
	api.HandleFunc("/report/validate", reportHandler.Validate).Methods("POST")
	api.HandleFunc("/system", reportHandler.System).Methods("GET")

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: NewRouter(deps),
		cfg:    cfg,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("API server listening", "addr", "http://"+ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
