// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package metrics exposes Prometheus instrumentation for the presence layer.
//
// Metrics are registered on the default registry at package init and served
// at /metrics:
//
//	curl http://localhost:8080/metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection Metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_active_connections",
			Help: "Current number of registered live connections",
		},
	)

	Handshakes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_handshakes_total",
			Help: "Total number of connection handshakes by result",
		},
		[]string{"result"}, // accepted, no_credentials, invalid, expired, unknown_identity, inactive, unavailable
	)

	DisplacedSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waypoint_displaced_sessions_total",
			Help: "Total number of registrations that replaced an older handle for the same identity",
		},
	)

	// Event Metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_events_total",
			Help: "Total number of inbound events by type and outcome",
		},
		[]string{"event", "outcome"}, // outcome: ack, invalid, rate_limited, failed
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_event_duration_seconds",
			Help:    "Time to validate, authorize and fan out one inbound event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"event"},
	)

	FanoutRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_fanout_recipients_total",
			Help: "Total number of fan-out recipients by delivery status",
		},
		[]string{"event", "status"}, // delivered, offline, failed
	)

	// Ephemeral Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_store_operations_total",
			Help: "Total number of ephemeral store operations by result",
		},
		[]string{"backend", "operation", "result"}, // result: ok, miss, error
	)

	// Directory Metrics
	DirectoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_directory_request_duration_seconds",
			Help:    "Duration of identity, friendship and route-share lookups",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"lookup"},
	)

	DirectoryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_directory_errors_total",
			Help: "Total number of failed directory lookups",
		},
		[]string{"lookup"},
	)

	// Delivery Metrics
	OfflineHandoffs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_offline_handoffs_total",
			Help: "Total number of offline notification hand-offs by result",
		},
		[]string{"result"},
	)

	LastSeenPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_last_seen_published_total",
			Help: "Total number of last-seen updates by result",
		},
		[]string{"result"},
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_api_active_requests",
			Help: "Current number of in-flight HTTP API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waypoint_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordHandshake records the result of one handshake.
func RecordHandshake(result string) {
	Handshakes.WithLabelValues(result).Inc()
}

// RecordEvent records one inbound event with its outcome and duration.
func RecordEvent(event, outcome string, duration time.Duration) {
	EventsTotal.WithLabelValues(event, outcome).Inc()
	EventDuration.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordFanout records per-status recipient counts for one fan-out.
func RecordFanout(event string, delivered, offline, failed int) {
	if delivered > 0 {
		FanoutRecipients.WithLabelValues(event, "delivered").Add(float64(delivered))
	}
	if offline > 0 {
		FanoutRecipients.WithLabelValues(event, "offline").Add(float64(offline))
	}
	if failed > 0 {
		FanoutRecipients.WithLabelValues(event, "failed").Add(float64(failed))
	}
}

// RecordStoreOp records one ephemeral store operation.
func RecordStoreOp(backend, operation, result string) {
	StoreOperations.WithLabelValues(backend, operation, result).Inc()
}

// RecordDirectoryLookup records one directory lookup.
func RecordDirectoryLookup(lookup string, duration time.Duration, err error) {
	DirectoryRequestDuration.WithLabelValues(lookup).Observe(duration.Seconds())
	if err != nil {
		DirectoryErrors.WithLabelValues(lookup).Inc()
	}
}

// RecordOfflineHandoff records one offline hand-off.
func RecordOfflineHandoff(err error) {
	OfflineHandoffs.WithLabelValues(resultLabel(err)).Inc()
}

// RecordLastSeen records one last-seen publish.
func RecordLastSeen(err error) {
	LastSeenPublished.WithLabelValues(resultLabel(err)).Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
// States use gobreaker's numbering (0=closed, 1=half-open, 2=open).
func RecordBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordAPIRequest records one HTTP API request. endpoint should be the
// route pattern, not the raw path, to bound label cardinality.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight HTTP API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
