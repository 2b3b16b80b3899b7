// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"

	"github.com/wingedpig/crashintake/internal/crashcheck"
	"github.com/wingedpig/crashintake/internal/intake"
)

// CrashCheckHandler handles crash check API requests.
type CrashCheckHandler struct {
	svc *intake.Service
}

// NewCrashCheckHandler creates a new crash check handler.
func NewCrashCheckHandler(svc *intake.Service) *CrashCheckHandler {
	return &CrashCheckHandler{svc: svc}
}

// Get returns the last decision.
// GET /api/v1/crashcheck
func (h *CrashCheckHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Flow().Decision())
}

// Run performs a crash check.
// POST /api/v1/crashcheck
func (h *CrashCheckHandler) Run(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.CheckCrash(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// More returns the explanation behind the crash notice.
// GET /api/v1/crashcheck/more
func (h *CrashCheckHandler) More(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Flow().MoreInfo()
	if err != nil {
		writeFlowError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// Dismiss deletes the crash evidence.
// POST /api/v1/crashcheck/dismiss
func (h *CrashCheckHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Flow().Dismiss(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// Report starts a report from the crash evidence.
// POST /api/v1/crashcheck/report
func (h *CrashCheckHandler) Report(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Flow().RequestReport(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files":   files,
		"session": h.svc.Store().Get(),
	})
}

func writeFlowError(w http.ResponseWriter, err error) {
	if errors.Is(err, crashcheck.ErrInvalidTransition) {
		WriteError(w, http.StatusConflict, ErrConflict, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
}
