// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// CrashCheckClient drives the check for a crash in the previous session.
// Transitions that are not allowed in the current state fail with
// [CodeConflict].
type CrashCheckClient struct {
	c *Client
}

// Get returns the latest decision without running a check.
func (cc *CrashCheckClient) Get(ctx context.Context) (*Decision, error) {
	var d Decision
	if err := cc.c.get(ctx, "/api/v1/crashcheck", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Run scans the dump directories and classifies what it finds.
func (cc *CrashCheckClient) Run(ctx context.Context) (*Decision, error) {
	var d Decision
	if err := cc.c.post(ctx, "/api/v1/crashcheck", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// More explains the pending notice.
func (cc *CrashCheckClient) More(ctx context.Context) (*CrashInfo, error) {
	var info CrashInfo
	if err := cc.c.get(ctx, "/api/v1/crashcheck/more", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Dismiss discards the crash dumps and returns how many were removed.
func (cc *CrashCheckClient) Dismiss(ctx context.Context) (int, error) {
	var res struct {
		Removed int `json:"removed"`
	}
	if err := cc.c.post(ctx, "/api/v1/crashcheck/dismiss", &res); err != nil {
		return 0, err
	}
	return res.Removed, nil
}

// Report starts a report with the crash evidence attached.
func (cc *CrashCheckClient) Report(ctx context.Context) (*ReportStarted, error) {
	var res ReportStarted
	if err := cc.c.post(ctx, "/api/v1/crashcheck/report", &res); err != nil {
		return nil, err
	}
	return &res, nil
}
