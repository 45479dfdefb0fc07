package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Month outcome label values.
const (
	OutcomeGenerated = "generated"
	OutcomeFailed    = "failed"
)

var (
	// monthGenerations counts per-month synthesis attempts by outcome.
	monthGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_month_generations_total",
			Help: "Per-month image generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// generationDuration records wall time of a full 12-month run.
	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "calendar_generation_duration_seconds",
			Help:    "Duration of a complete calendar generation run.",
			Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 900, 1800},
		},
	)

	generationInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "calendar_generation_inflight",
			Help: "Calendar generation runs currently executing.",
		},
	)

	// queueEnqueued counts enqueue attempts by result (ok|full|error).
	queueEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_queue_enqueued_total",
			Help: "Generation jobs submitted to the queue by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(monthGenerations, generationDuration, generationInflight, queueEnqueued)
}

// ObserveMonth records one month attempt.
func ObserveMonth(outcome string) { monthGenerations.WithLabelValues(outcome).Inc() }

// StartGeneration marks a run as in flight and returns a func that records
// its duration and clears the in-flight mark.
func StartGeneration() func() {
	start := time.Now()
	generationInflight.Inc()
	return func() {
		generationInflight.Dec()
		generationDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveEnqueue records the result of submitting a job.
func ObserveEnqueue(result string) { queueEnqueued.WithLabelValues(result).Inc() }
