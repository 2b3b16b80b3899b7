// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the published corpus document.
const DefaultURL = "https://raw.githubusercontent.com/Nexus-Mods/Vortex-Backend/main/out/issues_report.json"

// Source fetches the corpus document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the document with a single unauthenticated GET.
type HTTPSource struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPSource creates an HTTP source with the given timeout and body limit.
func NewHTTPSource(url string, timeout time.Duration, maxBytes int64) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &HTTPSource{
		URL:      url,
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch corpus: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("corpus document exceeds %d bytes", s.MaxBytes)
	}
	return data, nil
}
