// README: Prometheus metrics for matching cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the matcher.
type Metrics struct {
	CyclesRun         prometheus.Counter
	RidesCreated      prometheus.Counter
	CandidatesMatched prometheus.Counter
	CandidatesSkipped prometheus.Counter
	CycleDuration     prometheus.Histogram
	ErrorsCount       *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CyclesRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_run_total",
			Help:      "The total number of matching cycles executed",
		}),
		RidesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rides_created_total",
			Help:      "The total number of shared rides committed",
		}),
		CandidatesMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_matched_total",
			Help:      "The total number of candidates placed into groups",
		}),
		CandidatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_skipped_total",
			Help:      "The total number of records rejected during normalization",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken to run a full matching cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
