// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus metrics for the intake pipeline.
//
// All recording methods are safe to call on a nil *Metrics, so components can
// be built without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "crashintake"

// Metrics holds the registry and every collector the pipeline records to.
type Metrics struct {
	registry *prometheus.Registry

	scans            prometheus.Counter
	evidenceFiles    *prometheus.CounterVec
	classifications  *prometheus.CounterVec
	corpusRefreshes  *prometheus.CounterVec
	corpusFetch      prometheus.Histogram
	relatedLookups   *prometheus.CounterVec
	archives         *prometheus.CounterVec
	archiveDuration  prometheus.Histogram
	recomputes       *prometheus.CounterVec
	intentsPublished *prometheus.CounterVec
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the pipeline metrics.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "evidence", Name: "scans_total",
			Help: "Evidence scans performed",
		}),
		evidenceFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "evidence", Name: "files_total",
			Help: "Evidence files found by category",
		}, []string{"category"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "classifier", Name: "results_total",
			Help: "Classification results by failure category",
		}, []string{"category"}),
		corpusRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "corpus", Name: "refreshes_total",
			Help: "Corpus refresh attempts by outcome",
		}, []string{"outcome"}),
		corpusFetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "corpus", Name: "fetch_duration_seconds",
			Help:    "Time to fetch the remote corpus document",
			Buckets: prometheus.DefBuckets,
		}),
		relatedLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "corpus", Name: "related_lookups_total",
			Help: "Related-issue lookups by result",
		}, []string{"result"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "attachments", Name: "archives_total",
			Help: "Archive assembly attempts by outcome",
		}, []string{"outcome"}),
		archiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "attachments", Name: "archive_duration_seconds",
			Help:    "Time to assemble an archive",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "recomputes_total",
			Help: "Debounced fingerprint recomputes by outcome",
		}, []string{"outcome"}),
		intentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "events", Name: "intents_total",
			Help: "Intents published by kind",
		}, []string{"kind"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "api", Name: "requests_total",
			Help: "API requests by route template, method and status class",
		}, []string{"route", "method", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
			Help:    "API request latency by route template",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.scans, m.evidenceFiles, m.classifications, m.corpusRefreshes, m.corpusFetch,
		m.relatedLookups, m.archives, m.archiveDuration, m.recomputes, m.intentsPublished,
		m.apiRequests, m.apiDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ScanCompleted() {
	if m == nil {
		return
	}
	m.scans.Inc()
}

func (m *Metrics) EvidenceFound(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.evidenceFiles.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) Classified(category string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(category).Inc()
}

// CorpusRefreshed records a refresh outcome ("ok", "fetch_error", "invalid", "write_error").
func (m *Metrics) CorpusRefreshed(outcome string, fetch time.Duration) {
	if m == nil {
		return
	}
	m.corpusRefreshes.WithLabelValues(outcome).Inc()
	if fetch > 0 {
		m.corpusFetch.Observe(fetch.Seconds())
	}
}

func (m *Metrics) RelatedLookup(found int) {
	if m == nil {
		return
	}
	result := "miss"
	if found > 0 {
		result = "hit"
	}
	m.relatedLookups.WithLabelValues(result).Inc()
}

// ArchiveAssembled records an archive outcome ("ok", "empty", "failed").
func (m *Metrics) ArchiveAssembled(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(outcome).Inc()
	m.archiveDuration.Observe(d.Seconds())
}

// Recomputed records a debounced recompute ("committed" or "stale").
func (m *Metrics) Recomputed(outcome string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IntentPublished(kind string) {
	if m == nil {
		return
	}
	m.intentsPublished.WithLabelValues(kind).Inc()
}

// APIRequest records one API request. route is the route template, not the
// raw path, so IDs do not create new series.
func (m *Metrics) APIRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.apiDuration.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
