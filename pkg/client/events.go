// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// EventClient provides access to recent intents such as
// "crash.known_error" or "archive.ready".
//
//	events, err := client.Events.List(ctx, &client.ListOptions{Kinds: []string{"crash.*"}})
type EventClient struct {
	c *Client
}

// ListOptions configures event listing.
type ListOptions struct {
	// Limit is the maximum number of events to return (newest kept).
	Limit int

	// Kinds filters by kind pattern. A "*" segment matches any segment.
	Kinds []string

	// Since filters to events after this time.
	Since time.Time

	// Until filters to events before this time.
	Until time.Time
}

// List returns recent events, oldest first.
func (e *EventClient) List(ctx context.Context, opts *ListOptions) ([]Event, error) {
	path := "/api/v1/events"

	if opts != nil {
		params := url.Values{}
		if opts.Limit > 0 {
			params.Set("limit", fmt.Sprintf("%d", opts.Limit))
		}
		for _, k := range opts.Kinds {
			params.Add("kind", k)
		}
		if !opts.Since.IsZero() {
			params.Set("since", opts.Since.Format(time.RFC3339))
		}
		if !opts.Until.IsZero() {
			params.Set("until", opts.Until.Format(time.RFC3339))
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var events []Event
	if err := e.c.get(ctx, path, &events); err != nil {
		return nil, err
	}
	return events, nil
}
