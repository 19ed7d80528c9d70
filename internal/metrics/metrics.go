// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Markers
	MarkersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markers_created_total",
			Help: "Total number of markers inserted",
		},
		[]string{"kind"},
	)

	MarkerInsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_insert_errors_total",
			Help: "Total number of failed marker inserts",
		},
		[]string{"kind"},
	)

	// Rewards
	RewardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_transitions_total",
			Help: "Contribute and redeem attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// WebSocket
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected live feed clients",
		},
	)

	WebSocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Messages dropped because a client's send buffer was full",
		},
	)
)

// RecordAPIRequest observes one served request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
