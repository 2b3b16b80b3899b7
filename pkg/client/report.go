// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// ReportClient renders and validates report bodies.
type ReportClient struct {
	c *Client
}

// RenderOptions are the report fields that are not part of the session.
type RenderOptions struct {
	GameMode         string `json:"game_mode,omitempty"`
	ExtensionVersion string `json:"extension_version,omitempty"`
	ExternalFileURL  string `json:"external_file_url,omitempty"`
	Steps            string `json:"steps,omitempty"`
	ExpectedBehavior string `json:"expected_behavior,omitempty"`
	ActualBehavior   string `json:"actual_behavior,omitempty"`
	ReportedBy       string `json:"reported_by,omitempty"`
}

// Rendered is a report ready for submission.
type Rendered struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Violation explains why an input was rejected.
type Violation struct {
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	MinLength int    `json:"min_length,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

// Render renders the current session as a report body.
func (r *ReportClient) Render(ctx context.Context, opts RenderOptions) (*Rendered, error) {
	var out Rendered
	if err := r.c.postJSON(ctx, "/api/v1/report/render", opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks a single input. kind is "title", "content" or "url". It
// returns nil when the input is acceptable.
func (r *ReportClient) Validate(ctx context.Context, kind, text string) (*Violation, error) {
	var out struct {
		Valid     bool       `json:"valid"`
		Violation *Violation `json:"violation"`
	}
	body := struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{Kind: kind, Text: text}
	if err := r.c.postJSON(ctx, "/api/v1/report/validate", body, &out); err != nil {
		return nil, err
	}
	return out.Violation, nil
}

// System returns the host description included in reports.
func (r *ReportClient) System(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := r.c.get(ctx, "/api/v1/system", &info); err != nil {
		return nil, err
	}
	return &info, nil
}
