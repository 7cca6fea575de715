package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_runs_started_total",
			Help: "Total number of analysis runs started",
		},
	)

	PipelineRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_runs_active",
			Help: "Number of analysis runs currently in flight",
		},
	)

	PipelineStagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_completed_total",
			Help: "Total number of pipeline stages completed",
		},
		[]string{"stage"},
	)

	PipelineStagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_failed_total",
			Help: "Total number of pipeline stages failed",
		},
		[]string{"stage", "error_code"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of stage processing in seconds",
		},
		[]string{"stage"},
	)

	TextServiceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_service_calls_total",
			Help: "Total number of external text service calls",
		},
		[]string{"status"},
	)

	TextServiceCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "text_service_call_duration_seconds",
			Help: "Duration of external text service calls in seconds",
		},
	)
)
