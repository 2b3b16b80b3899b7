// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wingedpig/crashintake/internal/intake"
	"github.com/wingedpig/crashintake/internal/intakeerr"
	"github.com/wingedpig/crashintake/internal/session"
)

// SessionHandler handles report session API requests.
type SessionHandler struct {
	svc *intake.Service
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *intake.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// TextRequest carries a single text field.
type TextRequest struct {
	Text string `json:"text"`
}

// FilesRequest lists paths to attach.
type FilesRequest struct {
	Paths []string `json:"paths"`
}

// FilesResponse is the session after attaching files.
type FilesResponse struct {
	Session  session.Snapshot   `json:"session"`
	Rejected []intake.Rejection `json:"rejected,omitempty"`
}

// ReportFilesResponse lists the files GenerateReportFiles attached.
type ReportFilesResponse struct {
	Files    interface{} `json:"files"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Get returns the current session.
// GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteVersioned(w, r, "session.get", http.StatusOK, h.svc.Store().Get())
}

// SetTitle replaces the title.
// PUT /api/v1/session/title
func (h *SessionHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	h.setText(w, r, h.svc.Store().SetTitle)
}

// SetMessage replaces the error message.
// PUT /api/v1/session/message
func (h *SessionHandler) SetMessage(w http.ResponseWriter, r *http.Request) {
	h.setText(w, r, h.svc.Store().SetMessage)
}

// SetStackTrace replaces the stack trace.
// PUT /api/v1/session/stacktrace
func (h *SessionHandler) SetStackTrace(w http.ResponseWriter, r *http.Request) {
	h.setText(w, r, h.svc.Store().SetStackTrace)
}

func (h *SessionHandler) setText(w http.ResponseWriter, r *http.Request, set func(string) (session.Snapshot, error)) {
	var req TextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	snap, err := set(req.Text)
	if errors.Is(err, session.ErrImmutable) {
		WriteError(w, http.StatusConflict, ErrImmutable, err.Error())
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteVersioned(w, r, "session.get", http.StatusOK, snap)
}

// Annotate replaces the free-text context. Locked sessions accept it.
// POST /api/v1/session/annotate
func (h *SessionHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	WriteVersioned(w, r, "session.get", http.StatusOK, h.svc.Store().Annotate(req.Text))
}

// AddFiles attaches files by path.
// POST /api/v1/session/files
func (h *SessionHandler) AddFiles(w http.ResponseWriter, r *http.Request) {
	var req FilesRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if len(req.Paths) == 0 {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "paths is required")
		return
	}
	snap, rejected := h.svc.AttachFiles(r.Context(), req.Paths)
	if len(rejected) == len(req.Paths) {
		WriteErrorWithDetails(w, http.StatusNotFound, ErrEvidenceUnavailable, "no file could be attached",
			map[string]interface{}{"rejected": rejected})
		return
	}
	WriteJSON(w, http.StatusOK, FilesResponse{Session: snap, Rejected: rejected})
}

// RemoveFile detaches a file.
// DELETE /api/v1/session/files/{id}
func (h *SessionHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := h.svc.Store().RemoveFile(id)
	if errors.Is(err, session.ErrFileNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "file not attached: "+id)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteVersioned(w, r, "session.get", http.StatusOK, snap)
}

// Clear discards the report.
// POST /api/v1/session/clear
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	WriteVersioned(w, r, "session.get", http.StatusOK, h.svc.Clear())
}

// ReportFiles attaches the generated report files.
// POST /api/v1/session/report-files
func (h *SessionHandler) ReportFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.GenerateReportFiles(r.Context())
	switch {
	case errors.Is(err, intake.ErrStale):
		WriteError(w, http.StatusConflict, ErrStale, err.Error())
		return
	case err != nil && files == nil:
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	resp := ReportFilesResponse{Files: files}
	if err != nil {
		resp.Warnings = strings.Split(err.Error(), "\n")
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Archive packs the attached files.
// POST /api/v1/session/archive
func (h *SessionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.GenerateArchive(r.Context())
	switch {
	case errors.Is(err, intake.ErrStale):
		WriteError(w, http.StatusConflict, ErrStale, err.Error())
		return
	case intakeerr.KindOf(err) == intakeerr.KindAssemblyFailed:
		WriteError(w, http.StatusInternalServerError, ErrAssemblyFailed, err.Error())
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"path": path})
}

// Related returns the related issues for the current session.
// GET /api/v1/session/related
func (h *SessionHandler) Related(w http.ResponseWriter, r *http.Request) {
	WriteVersioned(w, r, "session.related", http.StatusOK, h.svc.Related())
}
