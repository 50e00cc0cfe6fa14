package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "efe",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "efe",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"method", "path"},
	)

	expensesScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "efe",
			Subsystem: "scoring",
			Name:      "expenses_scored_total",
			Help:      "Total number of scored expenses by decision",
		},
		[]string{"decision"},
	)

	scoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "efe",
			Subsystem: "scoring",
			Name:      "duration_seconds",
			Help:      "End-to-end scoring latency per expense",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
	)
)

func observeRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func observeScoring(decision fraud.Decision, duration time.Duration) {
	expensesScoredTotal.WithLabelValues(string(decision)).Inc()
	scoringDuration.Observe(duration.Seconds())
}
