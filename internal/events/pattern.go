// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"strings"
)

// Pattern selects intent kinds. Kinds are dot-separated; a "*" segment
// matches any single segment and a lone "*" matches every kind.
//
//	"crash.*"   matches "crash.known_error", "crash.dismissed"
//	"*.ready"   matches "archive.ready"
type Pattern struct {
	raw      string
	segments []string
}

// ErrEmptyPattern is returned when compiling an empty pattern.
var ErrEmptyPattern = errors.New("empty pattern")

// CompilePattern parses a kind pattern.
func CompilePattern(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pattern{}, ErrEmptyPattern
	}
	segments := strings.Split(raw, ".")
	for _, s := range segments {
		if s == "" {
			return Pattern{}, errors.New("pattern has an empty segment: " + raw)
		}
	}
	return Pattern{raw: raw, segments: segments}, nil
}

// String returns the pattern source.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether kind is selected by the pattern.
func (p Pattern) Match(kind string) bool {
	if kind == "" || len(p.segments) == 0 {
		return false
	}
	if p.raw == "*" {
		return true
	}
	parts := strings.Split(kind, ".")
	if len(parts) != len(p.segments) {
		return false
	}
	for i, seg := range p.segments {
		if seg != "*" && seg != parts[i] {
			return false
		}
	}
	return true
}

// MatchKind compiles pattern and matches kind. Invalid patterns match nothing.
func MatchKind(kind, pattern string) bool {
	p, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	return p.Match(kind)
}
