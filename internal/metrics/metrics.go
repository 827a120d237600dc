// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsTotal         *prometheus.CounterVec
	rewritesTotal      *prometheus.CounterVec
	batchesTotal       prometheus.Counter
	jobsTrimmedTotal   prometheus.Counter
	runsTotal          *prometheus.CounterVec
	runDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors. It is safe to call
// this function multiple times.
func Init() {
	once.Do(func() {
		itemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestor_feed_items_total",
				Help: "Feed items seen, labeled by outcome (matched, rejected, duplicate).",
			},
			[]string{"outcome"},
		)
		rewritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestor_rewrites_total",
				Help: "Content rewrites, labeled by path (ai, fallback).",
			},
			[]string{"path"},
		)
		batchesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingestor_batches_committed_total",
				Help: "Job batches committed to the store.",
			},
		)
		jobsTrimmedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingestor_jobs_trimmed_total",
				Help: "Jobs evicted by the retention trimmer.",
			},
		)
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestor_runs_total",
				Help: "Pipeline runs, labeled by status.",
			},
			[]string{"status"},
		)
		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingestor_run_duration_seconds",
				Help:    "Wall-clock duration of pipeline runs.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		)
	})
}

// ObserveItem records one classified feed item.
func ObserveItem(outcome string) {
	if itemsTotal != nil {
		itemsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRewrite records one rewrite by path ("ai" or "fallback").
func ObserveRewrite(path string) {
	if rewritesTotal != nil {
		rewritesTotal.WithLabelValues(path).Inc()
	}
}

// ObserveBatch records one committed batch.
func ObserveBatch() {
	if batchesTotal != nil {
		batchesTotal.Inc()
	}
}

// ObserveTrimmed records evicted jobs.
func ObserveTrimmed(n int64) {
	if jobsTrimmedTotal != nil && n > 0 {
		jobsTrimmedTotal.Add(float64(n))
	}
}

// ObserveRun records a finished run with its status and duration.
func ObserveRun(status string, duration time.Duration) {
	if runsTotal != nil {
		runsTotal.WithLabelValues(status).Inc()
	}
	if runDurationSeconds != nil {
		runDurationSeconds.Observe(duration.Seconds())
	}
}
