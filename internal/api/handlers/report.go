// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/crashintake/internal/environment"
	"github.com/wingedpig/crashintake/internal/intake"
	"github.com/wingedpig/crashintake/internal/report"
)

// ReportHandler renders and validates report bodies.
type ReportHandler struct {
	svc    *intake.Service
	system environment.SystemInfo
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *intake.Service, system environment.SystemInfo) *ReportHandler {
	return &ReportHandler{svc: svc, system: system}
}

// RenderRequest carries the report fields the session does not hold.
type RenderRequest struct {
	GameMode         string `json:"game_mode"`
	ExtensionVersion string `json:"extension_version"`
	ExternalFileURL  string `json:"external_file_url"`
	Steps            string `json:"steps"`
	ExpectedBehavior string `json:"expected_behavior"`
	ActualBehavior   string `json:"actual_behavior"`
	ReportedBy       string `json:"reported_by"`
}

// RenderResponse is a rendered report.
type RenderResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ValidateRequest is a single input to check.
type ValidateRequest struct {
	Kind report.InputKind `json:"kind"`
	Text string           `json:"text"`
}

// ValidateResponse is the result of an input check.
type ValidateResponse struct {
	Valid     bool              `json:"valid"`
	Violation *report.Violation `json:"violation,omitempty"`
}

// Render renders the current session as a report body.
// POST /api/v1/report/render
func (h *ReportHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	snap := h.svc.Store().Get()
	d := report.Details{
		Title:             snap.Title,
		System:            h.system,
		ErrorMessage:      snap.Message,
		StackTrace:        snap.StackTrace,
		GameMode:          req.GameMode,
		ExtensionVersion:  req.ExtensionVersion,
		ExternalFileURL:   req.ExternalFileURL,
		Steps:             req.Steps,
		ExpectedBehavior:  req.ExpectedBehavior,
		ActualBehavior:    req.ActualBehavior,
		Attachments:       snap.FileList(),
		Hash:              snap.Fingerprint,
		ReportedBy:        req.ReportedBy,
		AdditionalContext: snap.Context,
	}
	WriteJSON(w, http.StatusOK, RenderResponse{Title: snap.Title, Body: report.Render(d)})
}

// Validate checks one user input against its length and format rules.
// POST /api/v1/report/validate
func (h *ReportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	switch req.Kind {
	case report.InputTitle, report.InputContent, report.InputURL:
	default:
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "kind must be title, content, or url")
		return
	}

	if v := report.ValidateInput(req.Kind, req.Text); v != nil {
		WriteJSON(w, http.StatusOK, ValidateResponse{Violation: v})
		return
	}
	WriteJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}

// System returns the host description used in report bodies.
// GET /api/v1/system
func (h *ReportHandler) System(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.system)
}
