// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus instruments for searches, downloads,
// and API requests. A nil *Metrics is valid and records nothing, so
// components can be built without instrumentation in tests and the CLI.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "patent_scout"

// Metrics groups every instrument behind one private registry.
type Metrics struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	records       *prometheus.CounterVec
	downloads     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	requests      *prometheus.CounterVec
	reqLatency    *prometheus.HistogramVec
}

// New registers all instruments, plus Go runtime and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_total",
			Help:      "Searches per source by outcome.",
		}, []string{"source", "outcome"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_search_duration_seconds",
			Help:      "Render plus extraction time per source.",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		}, []string{"source"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_records_total",
			Help:      "Records extracted per source.",
		}, []string{"source"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_downloads_total",
			Help:      "PDF acquisitions by outcome.",
		}, []string{"outcome"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_download_bytes_total",
			Help:      "Bytes of validated PDFs stored.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
		reqLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searches, m.searchLatency, m.records,
		m.downloads, m.downloadBytes,
		m.requests, m.reqLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSearch records one source search.
func (m *Metrics) ObserveSearch(source string, d time.Duration, records int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.searches.WithLabelValues(source, outcome).Inc()
	m.searchLatency.WithLabelValues(source).Observe(d.Seconds())
	m.records.WithLabelValues(source).Add(float64(records))
}

// ObserveDownload records one acquisition outcome and, on success, its size.
func (m *Metrics) ObserveDownload(outcome string, size int64) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(outcome).Inc()
	if size > 0 {
		m.downloadBytes.Add(float64(size))
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.reqLatency.WithLabelValues(route).Observe(d.Seconds())
}
