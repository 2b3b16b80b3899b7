// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for the crashintake API.
//
// crashintake runs next to a desktop application. It checks for crashes
// left by the previous session, keeps the bug report being drafted, matches
// it against known issues and packs evidence files for submission.
//
// # Getting Started
//
// Create a client pointing to a running server:
//
//	c := client.New("http://127.0.0.1:7341")
//
// The client provides access to different API resources through sub-clients:
//
//	// Check for a crash from the previous session
//	decision, err := c.CrashCheck.Run(ctx)
//
//	// Edit the report
//	sess, err := c.Session.SetTitle(ctx, "Deployment fails on startup")
//
//	// Known issues related to the report
//	related, err := c.Session.Related(ctx)
//
// # API Versioning
//
// crashintake uses date-based API versioning. By default, the client uses
// the latest API version. You can pin to a specific version for stability:
//
//	c := client.New("http://127.0.0.1:7341", client.WithVersion("2026-10-01"))
//
// The version is sent via the Intake-Version HTTP header on each request.
//
// # Error Handling
//
// API errors are returned as *APIError values:
//
//	_, err := c.Session.SetTitle(ctx, "x")
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == client.CodeImmutable {
//	    // the report was started by a trigger and cannot be edited
//	}
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a crashintake API client.
//
// The Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client

	// Session edits the report being drafted.
	Session *SessionClient

	// CrashCheck drives the check for a crash in the previous session.
	CrashCheck *CrashCheckClient

	// Corpus manages the known issue corpus.
	Corpus *CorpusClient

	// Triggers starts reports on behalf of the host application.
	Triggers *TriggerClient

	// Report renders and validates report bodies.
	Report *ReportClient

	// Events provides access to recent intents.
	Events *EventClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a new API client with the given base URL and options.
//
// By default, the client uses the latest API version ([LatestVersion]) and a
// 30-second HTTP timeout.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: LatestVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Session = &SessionClient{c: c}
	c.CrashCheck = &CrashCheckClient{c: c}
	c.Corpus = &CorpusClient{c: c}
	c.Triggers = &TriggerClient{c: c}
	c.Report = &ReportClient{c: c}
	c.Events = &EventClient{c: c}

	return c
}

// WithVersion sets the API version to use for all requests.
func WithVersion(v string) Option {
	return func(c *Client) {
		c.version = v
	}
}

// WithHTTPClient sets a custom HTTP client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout for all requests.
//
// Archive assembly over large dumps may need more than the 30-second default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Version returns the API version being used.
func (c *Client) Version() string {
	return c.version
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error codes returned by the API.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeConflict            = "CONFLICT"
	CodeImmutable           = "IMMUTABLE"
	CodeEvidenceUnavailable = "EVIDENCE_UNAVAILABLE"
	CodeAssemblyFailed      = "ASSEMBLY_FAILED"
	CodeStale               = "STALE"
)

// apiResponse is the standard API response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// APIError represents an error response from the API.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`

	// Code is a machine-readable error code (e.g., [CodeImmutable]).
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Details contains additional error information, if available.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) putJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), out)
}

// do performs an HTTP request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(VersionHeader, c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := parseResponse(resp)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseResponse(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
			}
		}
		return respBody, nil
	}

	if apiResp.Error != nil {
		apiResp.Error.StatusCode = resp.StatusCode
		return nil, apiResp.Error
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return apiResp.Data, nil
}
