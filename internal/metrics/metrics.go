// Package metrics collects run counters and timings of a sweep and writes
// them in the Prometheus text format for the node exporter textfile collector.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

const namespace = "riskbench"

// Recorder holds the sweep metrics in a private registry. A nil Recorder
// discards everything.
type Recorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	budget   prometheus.Gauge
}

// New creates a Recorder with its metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Anonymization runs executed, by suite and algorithm.",
		}, []string{"suite", "algorithm"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single anonymization run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"algorithm"}),
		budget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_milliseconds",
			Help:      "Most recent time limit propagated from Flash to Heurakles.",
		}),
	}
	r.registry.MustRegister(r.runs, r.duration, r.budget)
	return r
}

// ObserveRun counts one run and records its duration.
func (r *Recorder) ObserveRun(suite, algorithm string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(suite, algorithm).Inc()
	r.duration.WithLabelValues(algorithm).Observe(d.Seconds())
}

// SetBudget records the latest propagated time limit.
func (r *Recorder) SetBudget(d time.Duration) {
	if r == nil {
		return
	}
	r.budget.Set(float64(d.Milliseconds()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return bencherr.IO("metrics.WriteTextfile", path, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return bencherr.IO("metrics.WriteTextfile", path, err)
	}
	return nil
}
