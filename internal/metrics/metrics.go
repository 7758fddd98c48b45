// Package metrics exposes Prometheus instrumentation for the job pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder aggregates the counters and histograms the service and workers
// report into. A nil *Recorder is safe to call, so wiring stays optional in
// tests.
type Recorder struct {
	registry *prometheus.Registry

	jobsCreated      prometheus.Counter
	jobsCompleted    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	versionsAppended prometheus.Counter
	queueDepth       prometheus.Gauge
}

// New builds a Recorder with its own registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manualstudio",
			Name:      "jobs_created_total",
			Help:      "Jobs accepted for processing.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manualstudio",
			Name:      "jobs_completed_total",
			Help:      "Jobs reaching a terminal status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "manualstudio",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		versionsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manualstudio",
			Name:      "steps_versions_appended_total",
			Help:      "Ledger entries appended across all jobs.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "manualstudio",
			Name:      "dispatch_queue_depth",
			Help:      "Tasks waiting in the dispatch queue.",
		}),
	}

	registry.MustRegister(
		r.jobsCreated,
		r.jobsCompleted,
		r.stageDuration,
		r.versionsAppended,
		r.queueDepth,
	)
	return r
}

// Registry exposes the underlying registry for scrape handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// JobCreated counts an accepted job.
func (r *Recorder) JobCreated() {
	if r == nil {
		return
	}
	r.jobsCreated.Inc()
}

// JobCompleted counts a job reaching a terminal status.
func (r *Recorder) JobCompleted(status string) {
	if r == nil {
		return
	}
	r.jobsCompleted.WithLabelValues(status).Inc()
}

// ObserveStage records how long one pipeline stage took.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// VersionAppended counts a ledger append.
func (r *Recorder) VersionAppended() {
	if r == nil {
		return
	}
	r.versionsAppended.Inc()
}

// SetQueueDepth records the current dispatch backlog.
func (r *Recorder) SetQueueDepth(depth int) {
	if r == nil {
		return
	}
	r.queueDepth.Set(float64(depth))
}
