// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import "sync"

// Transformer rewrites a latest-version response body into the shape an
// older version expects.
type Transformer func(data any) any

var (
	mu           sync.RWMutex
	transformers = map[string]map[string]Transformer{}
)

// Transform applies the transformer registered for version and endpoint.
// Endpoints are named "<resource>.<action>", e.g. "session.get".
func Transform(version, endpoint string, data any) any {
	if version == LatestVersion {
		return data
	}
	mu.RLock()
	t, ok := transformers[version][endpoint]
	mu.RUnlock()
	if !ok {
		return data
	}
	return t(data)
}

// RegisterTransformer adds a transformer for version and endpoint.
func RegisterTransformer(version, endpoint string, t Transformer) {
	mu.Lock()
	defer mu.Unlock()
	if transformers[version] == nil {
		transformers[version] = make(map[string]Transformer)
	}
	transformers[version][endpoint] = t
}
