// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package version implements date-based API versioning. Clients pin a
// version with the Intake-Version header; requests without it get the
// latest. Responses for older versions pass through registered transformers.
package version

import (
	"context"
	"slices"
)

const (
	// Version20261001 is the initial API version.
	Version20261001 = "2026-10-01"
)

// LatestVersion is the default API version.
var LatestVersion = Version20261001

// Known lists every version the server accepts, oldest first.
var Known = []string{Version20261001}

// Header carries the requested API version.
const Header = "Intake-Version"

type contextKey struct{}

// IsKnown reports whether v is a supported version.
func IsKnown(v string) bool {
	return slices.Contains(Known, v)
}

// FromContext returns the API version for the request, or LatestVersion.
func FromContext(ctx context.Context) string {
	v, ok := ctx.Value(contextKey{}).(string)
	if !ok || v == "" {
		return LatestVersion
	}
	return v
}

// WithContext returns a context carrying version.
func WithContext(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, contextKey{}, version)
}
