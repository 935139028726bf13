package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis runs by outcome",
		},
		[]string{"outcome"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "frontier",
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Wall time of successful analysis runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	frontSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "frontier",
			Subsystem: "analysis",
			Name:      "front_size",
			Help:      "Number of solutions on the returned Pareto front",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)
)
