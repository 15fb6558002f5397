// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Enrollments counts enrollment initiations by outcome:
	// enrolled, already_enrolled, checkout_required
	Enrollments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_enrollments_total",
			Help: "Enrollment initiations by outcome",
		},
		[]string{"outcome"},
	)

	// PaymentConfirmations counts confirmation attempts by outcome:
	// confirmed, already_confirmed, processing
	PaymentConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_payment_confirmations_total",
			Help: "Payment confirmation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// GatewayRequests counts calls to the payment gateway
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_gateway_requests_total",
			Help: "Payment gateway calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	// GatewayLatency records payment gateway call latency
	GatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elearning_gateway_request_duration_seconds",
			Help:    "Payment gateway call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// GatewayCircuitState is 0 closed, 1 half-open, 2 open
	GatewayCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "elearning_gateway_circuit_state",
			Help: "Payment gateway circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// ProgressUpdates counts watch progress writes
	ProgressUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_progress_updates_total",
			Help: "Video progress updates, labelled by whether the video was marked completed",
		},
		[]string{"completed"},
	)

	// CronRuns counts scheduled job runs by job and status
	CronRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_cron_runs_total",
			Help: "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)
)
