// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("")

	m.ScanCompleted()
	m.ScanCompleted()
	m.EvidenceFound("dump", 3)
	m.EvidenceFound("dump", 0)
	m.Classified("out_of_memory")
	m.CorpusRefreshed("ok", 20*time.Millisecond)
	m.RelatedLookup(0)
	m.RelatedLookup(2)
	m.ArchiveAssembled("failed", time.Second)
	m.Recomputed("stale")
	m.IntentPublished("archive_ready")
	m.APIRequest("/api/v1/session/files/{id}", "DELETE", 404, time.Millisecond)
	m.APIRequest("/api/v1/session", "GET", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scans))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.evidenceFiles.WithLabelValues("dump")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("out_of_memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.corpusRefreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relatedLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relatedLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.archives.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputes.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intentsPublished.WithLabelValues("archive_ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("/api/v1/session/files/{id}", "DELETE", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("/api/v1/session", "GET", "2xx")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ScanCompleted()
		m.EvidenceFound("dump", 1)
		m.Classified("x")
		m.CorpusRefreshed("ok", time.Second)
		m.RelatedLookup(1)
		m.ArchiveAssembled("ok", time.Second)
		m.Recomputed("committed")
		m.IntentPublished("x")
		m.APIRequest("/", "GET", 200, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.ScanCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_evidence_scans_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
