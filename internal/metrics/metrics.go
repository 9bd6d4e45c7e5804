package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callsight_calls_processed_total",
		Help: "Calls run through the evaluation pipeline, by terminal status.",
	}, []string{"status"}) // completed | failed | duplicate

	FinalScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "callsight_final_score",
		Help:    "Distribution of final call scores.",
		Buckets: prometheus.LinearBuckets(3, 0.5, 15), // 3.0 .. 10.0
	})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callsight_alerts_emitted_total",
		Help: "Alerts derived from processed calls, by rule type.",
	}, []string{"type"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callsight_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callsight_retention_deleted_total",
		Help: "Call rows purged by the retention sweeper.",
	})

	RetentionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callsight_retention_errors_total",
		Help: "Best-effort deletion failures recorded during retention sweeps.",
	})
)
