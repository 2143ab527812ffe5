// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_applications_processed_total",
			Help: "Total number of jobs processed, by terminal decision",
		},
		[]string{"decision", "reason"},
	)

	BatchesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoapply_batches_started_total",
			Help: "Total number of batch runs started",
		},
	)

	BatchesHalted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_batches_halted_total",
			Help: "Total number of batch runs halted before processing",
		},
		[]string{"reason"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "autoapply_job_duration_seconds",
			Help: "Duration of per-job processing in seconds",
		},
		[]string{"decision"},
	)

	RateLimitDeferrals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_rate_limit_deferrals_total",
			Help: "Total number of submissions deferred by the rate limiter",
		},
		[]string{"platform"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoapply_jobs_active",
			Help: "Number of jobs currently being processed",
		},
	)
)
