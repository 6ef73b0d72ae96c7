// Package metrics exposes engine and HTTP activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
)

const namespace = "bookshelf"

// Metrics implements crossfilter.Recorder and instruments the HTTP server.
type Metrics struct {
	gatherer prometheus.Gatherer

	filterChanges     *prometheus.CounterVec
	malformed         *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	selectedBooks     prometheus.Gauge
	totalBooks        prometheus.Gauge
	activeFilters     prometheus.Gauge
	notifications     prometheus.Counter
	subscribers       prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var _ crossfilter.Recorder = (*Metrics)(nil)

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep runs independent.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		filterChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_changes_total",
			Help:      "Filter set changes by attribute and action",
		}, []string{"attr", "action"}),
		malformed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_attributes_total",
			Help:      "Books excluded because the filtered attribute was missing or unparsable",
		}, []string{"attr"}),
		recomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Selection rescan duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}),
		selectedBooks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_books",
			Help:      "Books satisfying every active filter",
		}),
		totalBooks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Books loaded",
		}),
		activeFilters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_filters",
			Help:      "Filters in the active set",
		}),
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Change notifications fanned out",
		}),
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Subscribers reached by the last notification",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// FilterChanged implements crossfilter.Recorder.
func (m *Metrics) FilterChanged(attr string, action crossfilter.Action) {
	m.filterChanges.WithLabelValues(attr, string(action)).Inc()
}

// Recomputed implements crossfilter.Recorder.
func (m *Metrics) Recomputed(stats crossfilter.RecomputeStats) {
	m.recomputeDuration.Observe(stats.Duration.Seconds())
	m.selectedBooks.Set(float64(stats.Selected))
	m.totalBooks.Set(float64(stats.Total))
	m.activeFilters.Set(float64(stats.Filters))
	for attr, n := range stats.Malformed {
		m.malformed.WithLabelValues(attr).Add(float64(n))
	}
}

// Notified implements crossfilter.Recorder.
func (m *Metrics) Notified(subscribers int) {
	m.notifications.Inc()
	m.subscribers.Set(float64(subscribers))
}

// ObserveRequest records one served request. route is the router pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
