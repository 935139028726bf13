package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Maintenance job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frontier",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Maintenance job run time",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
