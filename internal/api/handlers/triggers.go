// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/crashintake/internal/intake"
	"github.com/wingedpig/crashintake/internal/intakeerr"
)

// TriggerHandler accepts report triggers from the host application.
type TriggerHandler struct {
	svc *intake.Service
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(svc *intake.Service) *TriggerHandler {
	return &TriggerHandler{svc: svc}
}

// Feedback starts a locked report.
// POST /api/v1/triggers/feedback
func (h *TriggerHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req intake.FeedbackRequested
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Title == "" && req.Message == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "title or message is required")
		return
	}
	h.handle(w, r, req)
}

// LogError attaches a session log.
// POST /api/v1/triggers/log-error
func (h *TriggerHandler) LogError(w http.ResponseWriter, r *http.Request) {
	var req intake.LogErrorReported
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Path == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "path is required")
		return
	}
	h.handle(w, r, req)
}

func (h *TriggerHandler) handle(w http.ResponseWriter, r *http.Request, t intake.Trigger) {
	snap, err := h.svc.HandleTrigger(r.Context(), t)
	if err != nil {
		if intakeerr.KindOf(err) == intakeerr.KindEvidenceUnavailable {
			WriteError(w, http.StatusNotFound, ErrEvidenceUnavailable, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteVersioned(w, r, "session.get", http.StatusOK, snap)
}
