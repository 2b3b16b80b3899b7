// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// TriggerClient starts reports on behalf of the host application.
type TriggerClient struct {
	c *Client
}

// Feedback describes an error the host application caught.
type Feedback struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	// Hash, if set, is used as the report fingerprint.
	Hash  string   `json:"hash,omitempty"`
	Files []string `json:"files,omitempty"`
}

// Feedback starts a locked report from a caught error. A message formatted
// as a full report is split into its message, stack trace and context.
func (t *TriggerClient) Feedback(ctx context.Context, fb Feedback) (*Session, error) {
	var sess Session
	if err := t.c.postJSON(ctx, "/api/v1/triggers/feedback", fb, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LogError attaches a session log file to the current report.
func (t *TriggerClient) LogError(ctx context.Context, path string) (*Session, error) {
	var sess Session
	body := struct {
		Path string `json:"path"`
	}{Path: path}
	if err := t.c.postJSON(ctx, "/api/v1/triggers/log-error", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
