package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "academic_ledger"

// Transaction outcomes used as metric labels.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

// MetricsSnapshot summarises the counters for the status endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	TransactionsCommitted    uint64    `json:"transactions_committed"`
	Conflicts                uint64    `json:"conflicts"`
	VerificationsValid       uint64    `json:"verifications_valid"`
	VerificationsInvalid     uint64    `json:"verifications_invalid"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService owns a private Prometheus registry for the gateway.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	httpTotal     *prometheus.CounterVec
	cacheLookups  *prometheus.HistogramVec
	cacheWrites   prometheus.Histogram
	cacheHitRatio prometheus.Gauge
	txDuration    *prometheus.HistogramVec
	txTotal       *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	verifications *prometheus.CounterVec

	requests        atomic.Uint64
	requestNanos    atomic.Uint64
	hits            atomic.Uint64
	misses          atomic.Uint64
	committed       atomic.Uint64
	conflictCount   atomic.Uint64
	validVerified   atomic.Uint64
	invalidVerified atomic.Uint64
}

// NewMetricsService registers the gateway collectors together with the Go
// runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template and status.",
		}, []string{"method", "path", "status"}),
		cacheLookups: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "query_cache",
			Name:      "lookup_seconds",
			Help:      "Query cache lookup latency by result.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"result"}),
		cacheWrites: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "query_cache",
			Name:      "write_seconds",
			Help:      "Query cache write latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "query_cache",
			Name:      "hit_ratio",
			Help:      "Share of query cache lookups that hit.",
		}),
		txDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "transaction_duration_seconds",
			Help:      "Ledger transaction latency including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
		txTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transaction attempts by function and outcome.",
		}, []string{"function", "outcome"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "store_conflicts_total",
			Help:      "Read-set conflicts detected at commit.",
		}, []string{"function"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "certificate_verifications_total",
			Help:      "Committed certificate verifications by result.",
		}, []string{"result"}),
	}
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
	m.requests.Add(1)
	m.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a query cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Observe(duration.Seconds())
	m.cacheHitRatio.Set(ratio(m.hits.Load(), m.misses.Load()))
}

// ObserveCacheWrite records a query cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// ObserveTransaction records one attempt of a ledger transaction.
func (m *MetricsService) ObserveTransaction(function, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(function).Observe(duration.Seconds())
	m.txTotal.WithLabelValues(function, outcome).Inc()
	switch outcome {
	case OutcomeCommitted:
		m.committed.Add(1)
	case OutcomeConflict:
		m.conflicts.WithLabelValues(function).Inc()
		m.conflictCount.Add(1)
	}
}

// RecordVerification counts a committed VerifyCertificate result.
func (m *MetricsService) RecordVerification(valid bool) {
	if m == nil {
		return
	}
	if valid {
		m.verifications.WithLabelValues("valid").Inc()
		m.validVerified.Add(1)
		return
	}
	m.verifications.WithLabelValues("invalid").Inc()
	m.invalidVerified.Add(1)
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := m.requests.Load()
	var avgMs float64
	if requests > 0 {
		avgMs = float64(m.requestNanos.Load()) / float64(requests) / float64(time.Millisecond)
	}
	hits, misses := m.hits.Load(), m.misses.Load()
	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio(hits, misses),
		TransactionsCommitted:    m.committed.Load(),
		Conflicts:                m.conflictCount.Load(),
		VerificationsValid:       m.validVerified.Load(),
		VerificationsInvalid:     m.invalidVerified.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
