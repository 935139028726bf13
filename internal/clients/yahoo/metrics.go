package yahoo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "yahoo",
			Name:      "requests_total",
			Help:      "Yahoo chart API requests by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "frontier",
			Subsystem: "yahoo",
			Name:      "request_duration_seconds",
			Help:      "Yahoo chart API request latency",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
