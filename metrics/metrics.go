// Package metrics provides Prometheus metrics for the team-matching service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// Manager owns every collector of the service. A nil *Manager is valid and
// records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	submissions         *prometheus.CounterVec
	matchingRuns        *prometheus.CounterVec
	teamsFormed         prometheus.Counter
	collaboratorLatency *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teammatch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "submissions_total",
		Help:      "Survey submissions by outcome",
	}, []string{"outcome"})

	m.matchingRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "matching_runs_total",
		Help:      "Matching runs by outcome",
	}, []string{"outcome"})

	m.teamsFormed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "teams_formed_total",
		Help:      "Teams persisted by successful matching runs",
	})

	m.collaboratorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "collaborator_request_duration_seconds",
		Help:      "Latency of calls to the scoring and matching collaborators",
		Buckets:   m.histogramBuckets,
	}, []string{"service", "outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Manager) RecordMatchingRun(outcome string, teams int) {
	if m == nil {
		return
	}
	m.matchingRuns.WithLabelValues(outcome).Inc()
	if teams > 0 {
		m.teamsFormed.Add(float64(teams))
	}
}

func (m *Manager) ObserveCollaborator(service, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.collaboratorLatency.WithLabelValues(service, outcome).Observe(d.Seconds())
}

func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
