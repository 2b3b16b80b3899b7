// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allIntents has one value of every variant.
var allIntents = []Intent{
	KnownErrorDetected{},
	UnknownErrorDetected{},
	EvidenceDismissed{},
	ReportDrafted{},
	ArchiveReady{},
	ArchiveFailed{},
	RelatedIssuesUpdated{},
	CorpusRefreshed{},
}

func TestKinds_CoverEveryIntent(t *testing.T) {
	require.Len(t, allIntents, len(Kinds))
	seen := make(map[string]bool)
	for _, in := range allIntents {
		assert.Contains(t, Kinds, in.Kind())
		assert.False(t, seen[in.Kind()], "duplicate kind %s", in.Kind())
		seen[in.Kind()] = true
	}
}

func TestHandlers_DispatchEveryVariant(t *testing.T) {
	var got []string
	record := func(kind string) { got = append(got, kind) }

	h := Handlers{
		KnownErrorDetected:   func(_ context.Context, v KnownErrorDetected) error { record(v.Kind()); return nil },
		UnknownErrorDetected: func(_ context.Context, v UnknownErrorDetected) error { record(v.Kind()); return nil },
		EvidenceDismissed:    func(_ context.Context, v EvidenceDismissed) error { record(v.Kind()); return nil },
		ReportDrafted:        func(_ context.Context, v ReportDrafted) error { record(v.Kind()); return nil },
		ArchiveReady:         func(_ context.Context, v ArchiveReady) error { record(v.Kind()); return nil },
		ArchiveFailed:        func(_ context.Context, v ArchiveFailed) error { record(v.Kind()); return nil },
		RelatedIssuesUpdated: func(_ context.Context, v RelatedIssuesUpdated) error { record(v.Kind()); return nil },
		CorpusRefreshed:      func(_ context.Context, v CorpusRefreshed) error { record(v.Kind()); return nil },
	}

	for _, in := range allIntents {
		require.NoError(t, h.Dispatch(context.Background(), in), "%T not dispatched", in)
	}
	assert.Equal(t, Kinds, got)
}

func TestHandlers_NilEntriesIgnore(t *testing.T) {
	var h Handlers
	for _, in := range allIntents {
		assert.NoError(t, h.Dispatch(context.Background(), in))
	}
}

func TestHandlers_UnknownIntent(t *testing.T) {
	err := Handlers{}.Dispatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestHandlers_OnBus(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	var path string
	_, err := bus.Subscribe("archive.*", Handlers{
		ArchiveReady: func(_ context.Context, v ArchiveReady) error {
			path = v.Path
			return nil
		},
	}.Handler())
	require.NoError(t, err)

	bus.Publish(context.Background(), ArchiveReady{Path: "/tmp/r.zip"})
	assert.Equal(t, "/tmp/r.zip", path)
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(Record{ID: "1", Kind: KindKnownError, Intent: KnownErrorDetected{Category: "out_of_memory", Code: "e0000008"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"crash.known_error"`)
	assert.Contains(t, string(data), `"category":"out_of_memory"`)
}
