// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/crashintake/internal/intake"
)

// CorpusHandler handles reference corpus API requests.
type CorpusHandler struct {
	svc *intake.Service
}

// NewCorpusHandler creates a new corpus handler.
func NewCorpusHandler(svc *intake.Service) *CorpusHandler {
	return &CorpusHandler{svc: svc}
}

// RefreshResponse reports a corpus refresh.
type RefreshResponse struct {
	Outcome    string `json:"outcome"`
	Issues     int    `json:"issues"`
	DurationMS int64  `json:"duration_ms"`
	Shared     bool   `json:"shared"`
	Error      string `json:"error,omitempty"`
}

// Refresh downloads the corpus now. A failed refresh is reported in the
// body; the previous cache stays in use.
// POST /api/v1/corpus/refresh
func (h *CorpusHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res := h.svc.RefreshCorpus(r.Context())
	resp := RefreshResponse{
		Outcome:    res.Outcome,
		Issues:     res.Issues,
		DurationMS: res.Duration.Milliseconds(),
		Shared:     res.Shared,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	WriteJSON(w, http.StatusOK, resp)
}
