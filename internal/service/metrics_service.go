package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface,
// the roster cache and the memorization engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	apiErrors       *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	transitions     *prometheus.CounterVec
	versesMarked    prometheus.Counter
	recheckRounds   *prometheus.CounterVec
	partialEvents   *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	apiErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_api_errors_total",
		Help: "API error responses by route template and error code",
	}, []string{"route", "code"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hafalan_status_transitions_total",
		Help: "Hafalan record status changes",
	}, []string{"from", "to"})

	versesMarked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hafalan_verses_marked_total",
		Help: "Verses newly added to hafalan records",
	})

	recheckRounds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hafalan_recheck_rounds_total",
		Help: "Recheck rounds recorded by outcome",
	}, []string{"result"})

	partialEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hafalan_partial_events_total",
		Help: "Partial hafalan lifecycle events",
	}, []string{"event"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hafalan_store_conflicts_total",
		Help: "Transactions that lost a race with another writer",
	}, []string{"operation", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, apiErrors, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		transitions, versesMarked, recheckRounds, partialEvents, conflicts, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		apiErrors:       apiErrors,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		transitions:     transitions,
		versesMarked:    versesMarked,
		recheckRounds:   recheckRounds,
		partialEvents:   partialEvents,
		conflicts:       conflicts,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAPIError counts an error envelope returned on route. Route is the gin
// template (for example /api/v1/hafalan/:id) so record ids never become labels.
func (m *MetricsService) RecordAPIError(route, code string) {
	if m == nil || code == "" {
		return
	}
	m.apiErrors.WithLabelValues(route, code).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts a status change. Equal statuses are ignored.
func (m *MetricsService) RecordTransition(from, to models.HafalanStatus) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordVersesMarked counts verses newly added to a record.
func (m *MetricsService) RecordVersesMarked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.versesMarked.Add(float64(n))
}

// RecordRecheckRound counts a recheck round by outcome.
func (m *MetricsService) RecordRecheckRound(allPassed bool) {
	if m == nil {
		return
	}
	result := "failed"
	if allPassed {
		result = "passed"
	}
	m.recheckRounds.WithLabelValues(result).Inc()
}

// RecordPartialEvent counts partial lifecycle events such as created or completed.
func (m *MetricsService) RecordPartialEvent(event string) {
	if m == nil {
		return
	}
	m.partialEvents.WithLabelValues(event).Inc()
}

// RecordConflict counts a lost race; outcome is retried or rejected.
func (m *MetricsService) RecordConflict(operation, outcome string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation, outcome).Inc()
}
