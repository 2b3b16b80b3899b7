// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/url"
)

// SessionClient edits the report being drafted.
//
// Title, message and stack trace edits fail with [CodeImmutable] while the
// report was started by a trigger.
type SessionClient struct {
	c *Client
}

type textRequest struct {
	Text string `json:"text"`
}

// Get returns the current report.
func (s *SessionClient) Get(ctx context.Context) (*Session, error) {
	var sess Session
	if err := s.c.get(ctx, "/api/v1/session", &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SetTitle replaces the report title.
func (s *SessionClient) SetTitle(ctx context.Context, title string) (*Session, error) {
	return s.setText(ctx, "title", title)
}

// SetMessage replaces the error message.
func (s *SessionClient) SetMessage(ctx context.Context, message string) (*Session, error) {
	return s.setText(ctx, "message", message)
}

// SetStackTrace replaces the stack trace.
func (s *SessionClient) SetStackTrace(ctx context.Context, stack string) (*Session, error) {
	return s.setText(ctx, "stacktrace", stack)
}

func (s *SessionClient) setText(ctx context.Context, field, text string) (*Session, error) {
	var sess Session
	if err := s.c.putJSON(ctx, "/api/v1/session/"+field, textRequest{Text: text}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Annotate appends user notes to the report context. It is allowed on
// locked reports.
func (s *SessionClient) Annotate(ctx context.Context, text string) (*Session, error) {
	var sess Session
	if err := s.c.postJSON(ctx, "/api/v1/session/annotate", textRequest{Text: text}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// AddFiles attaches files by path. Paths that cannot be attached are listed
// in the result; the call fails with [CodeEvidenceUnavailable] only when no
// path could be attached.
func (s *SessionClient) AddFiles(ctx context.Context, paths ...string) (*AddFilesResult, error) {
	var res AddFilesResult
	body := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}
	if err := s.c.postJSON(ctx, "/api/v1/session/files", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveFile detaches a file by ID.
func (s *SessionClient) RemoveFile(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := s.c.delete(ctx, "/api/v1/session/files/"+url.PathEscape(id), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Clear discards the report and starts an empty one.
func (s *SessionClient) Clear(ctx context.Context) (*Session, error) {
	var sess Session
	if err := s.c.post(ctx, "/api/v1/session/clear", &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ReportFiles writes the event log, state dumps and application logs and
// attaches them to the report.
func (s *SessionClient) ReportFiles(ctx context.Context) (*ReportFilesResult, error) {
	var res ReportFilesResult
	if err := s.c.post(ctx, "/api/v1/session/report-files", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Archive packs the attached files and returns the archive path, or "" when
// nothing could be packed.
func (s *SessionClient) Archive(ctx context.Context) (string, error) {
	var res struct {
		Path string `json:"path"`
	}
	if err := s.c.post(ctx, "/api/v1/session/archive", &res); err != nil {
		return "", err
	}
	return res.Path, nil
}

// Related returns the known issues related to the current report.
func (s *SessionClient) Related(ctx context.Context) (*Related, error) {
	var rel Related
	if err := s.c.get(ctx, "/api/v1/session/related", &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}
