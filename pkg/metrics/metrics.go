package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Stages are labeled by their canonical names
// (burn, attestation, build, submit).
var (
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_transfers_total",
			Help: "Completed transfer runs by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_stage_errors_total",
			Help: "Stage failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	AttestationPollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courier_attestation_poll_attempts",
			Help:    "Poll attempts consumed before an attestation became ready",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 40, 60, 120, 240},
		},
	)

	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_oracle_requests_total",
			Help: "Attestation oracle HTTP requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_submissions_total",
			Help: "Remote signer submissions by outcome",
		},
		[]string{"status"},
	)

	BurnAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_burn_amount_base_units_total",
			Help: "Total burned amount in asset base units",
		},
		[]string{"mode"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordStage observes one stage execution.
func RecordStage(stage string, seconds float64, err error, kind string) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
	if err != nil {
		StageErrors.WithLabelValues(stage, kind).Inc()
	}
}

// RecordTransfer counts a finished pipeline run.
func RecordTransfer(mode, status string) {
	TransfersTotal.WithLabelValues(mode, status).Inc()
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
