// Package observability provides the Prometheus collectors used by the
// grading pipeline.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	submissionsTotal       *prometheus.CounterVec
	scoringRetriesTotal    prometheus.Counter
	scoringDurationSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors for the pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "submissions_total",
			Help:      "Number of submissions graded, by outcome.",
		}, []string{"outcome"})

		scoringRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "scoring_retries_total",
			Help:      "Number of retried scoring service calls.",
		})

		scoringDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grader",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of scoring service calls including retries.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})

		prometheus.MustRegister(submissionsTotal, scoringRetriesTotal, scoringDurationSeconds)
	})
}

// Submissions exposes the per-outcome submission counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ScoringRetries exposes the retry counter.
func ScoringRetries() prometheus.Counter {
	RegisterMetrics()
	return scoringRetriesTotal
}

// ScoringDuration exposes the scoring latency histogram.
func ScoringDuration() prometheus.Histogram {
	RegisterMetrics()
	return scoringDurationSeconds
}
