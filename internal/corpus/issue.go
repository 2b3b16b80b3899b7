// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// IssueID identifies a reference issue. The corpus document carries it as
// either a JSON number or a string.
type IssueID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *IssueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = IssueID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("issue id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("issue id: %w", err)
	}
	*id = IssueID(n.String())
	return nil
}

// Issue is a previously filed report from the reference corpus.
// Missing titles and bodies decode as empty strings.
type Issue struct {
	ID          IssueID `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Fingerprint string  `json:"hash,omitempty"`
	URL         string  `json:"url"`
}

// ErrInvalidDocument is returned when a corpus document cannot be decoded.
var ErrInvalidDocument = errors.New("invalid corpus document")

// ParseIssues decodes a corpus document, which must be a JSON array.
func ParseIssues(data []byte) ([]Issue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", ErrInvalidDocument)
	}
	var issues []Issue
	if err := json.Unmarshal(trimmed, &issues); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return issues, nil
}
