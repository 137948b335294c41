// Package metrics exposes Prometheus collectors for the prerender service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	prerenderRequestsTotal         *prometheus.CounterVec
	collectionFetchTotal           *prometheus.CounterVec
	collectionFetchDurationSeconds *prometheus.HistogramVec
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		prerenderRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prerender_requests_total",
				Help: "Requests seen by the interceptor, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		collectionFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prerender_collection_fetch_total",
				Help: "Collection fetch attempts, labeled by collection and result.",
			},
			[]string{"collection", "result"},
		)

		collectionFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prerender_collection_fetch_duration_seconds",
				Help:    "Histogram of collection fetch latencies.",
				Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
			},
			[]string{"collection"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOutcome counts one interceptor decision.
func ObserveOutcome(outcome string) {
	prerenderRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCollectionFetch records a collection fetch. Skipped collections are
// counted but not timed.
func ObserveCollectionFetch(collection, result string, duration time.Duration) {
	collectionFetchTotal.WithLabelValues(collection, result).Inc()
	if duration > 0 {
		collectionFetchDurationSeconds.WithLabelValues(collection).Observe(duration.Seconds())
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Recorder adapts the package-level collectors to the observer interfaces
// taken by the resolver and the interceptor.
type Recorder struct{}

// NewRecorder initializes the collectors and returns a Recorder.
func NewRecorder() Recorder {
	Init()
	return Recorder{}
}

// ObserveOutcome implements interceptor.OutcomeObserver.
func (Recorder) ObserveOutcome(outcome string) {
	ObserveOutcome(outcome)
}

// ObserveCollectionFetch implements poetry.FetchObserver.
func (Recorder) ObserveCollectionFetch(collection, result string, duration time.Duration) {
	ObserveCollectionFetch(collection, result, duration)
}
