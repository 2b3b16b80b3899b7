// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// CorpusClient manages the known issue corpus.
type CorpusClient struct {
	c *Client
}

// Refresh downloads the corpus now. Concurrent refreshes share one download.
func (cc *CorpusClient) Refresh(ctx context.Context) (*RefreshResult, error) {
	var res RefreshResult
	if err := cc.c.post(ctx, "/api/v1/corpus/refresh", &res); err != nil {
		return nil, err
	}
	return &res, nil
}
