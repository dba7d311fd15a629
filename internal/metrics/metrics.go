// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache routing metrics
var (
	// CacheRequestsTotal tracks intercepted requests by routing decision and outcome
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_requests_total",
			Help: "Intercepted requests by route decision and outcome (hit/miss/bypass/fallback)",
		},
		[]string{"route", "outcome"},
	)

	// CacheBucketEvictions tracks cache buckets deleted during activation
	CacheBucketEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_cache_bucket_evictions_total",
			Help: "Cache buckets evicted during worker activation",
		},
	)

	// WorkerActivations tracks worker lifecycle transitions by version
	WorkerActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_worker_activations_total",
			Help: "Worker activations by version token",
		},
		[]string{"version"},
	)
)

// Upstream API metrics
var (
	// UpstreamRequestsTotal tracks upstream salon API calls by endpoint and status class
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Upstream salon API requests by endpoint and status class",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamRequestDuration tracks upstream call latency in seconds
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream salon API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Manager metrics
var (
	// DashboardLoadsTotal tracks dashboard load cycles by result
	DashboardLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_loads_total",
			Help: "Dashboard load cycles by result (ok/partial/forbidden/error)",
		},
		[]string{"result"},
	)

	// RosterMutationsTotal tracks roster mutations by operation and result
	RosterMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_mutations_total",
			Help: "Staff roster mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// StaleCompletionsDropped tracks async completions discarded by the generation guard
	StaleCompletionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stale_completions_dropped_total",
			Help: "Async completions discarded because the tenant or consumer changed mid-flight",
		},
		[]string{"manager"},
	)
)
