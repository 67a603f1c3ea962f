package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus instruments for the build pipeline. It
// registers against its own registry so tests can create collectors freely.
type Collector struct {
	registry *prometheus.Registry

	buildsStarted   prometheus.Counter
	buildsCompleted prometheus.Counter
	buildsFailed    prometheus.Counter
	buildDuration   prometheus.Histogram

	jobsStarted   prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsActive    prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		buildsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_builds_started_total",
			Help: "Total number of builds started",
		}),
		buildsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_builds_completed_total",
			Help: "Total number of builds completed successfully",
		}),
		buildsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_builds_failed_total",
			Help: "Total number of builds that failed",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "appforge_build_duration_seconds",
			Help:    "Build pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_prototype_jobs_started_total",
			Help: "Total number of prototype jobs started",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_prototype_jobs_completed_total",
			Help: "Total number of prototype jobs completed",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appforge_prototype_jobs_failed_total",
			Help: "Total number of prototype jobs failed",
		}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "appforge_prototype_jobs_active",
			Help: "Current number of prototype jobs in flight",
		}),
	}

	c.registry.MustRegister(
		c.buildsStarted,
		c.buildsCompleted,
		c.buildsFailed,
		c.buildDuration,
		c.jobsStarted,
		c.jobsCompleted,
		c.jobsFailed,
		c.jobsActive,
	)
	return c
}

// Handler exposes the collector in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordBuildStarted() {
	if c == nil {
		return
	}
	c.buildsStarted.Inc()
}

func (c *Collector) RecordBuildCompleted(durationSeconds float64) {
	if c == nil {
		return
	}
	c.buildsCompleted.Inc()
	c.buildDuration.Observe(durationSeconds)
}

func (c *Collector) RecordBuildFailed() {
	if c == nil {
		return
	}
	c.buildsFailed.Inc()
}

func (c *Collector) RecordJobStarted() {
	if c == nil {
		return
	}
	c.jobsStarted.Inc()
	c.jobsActive.Inc()
}

func (c *Collector) RecordJobCompleted() {
	if c == nil {
		return
	}
	c.jobsCompleted.Inc()
	c.jobsActive.Dec()
}

func (c *Collector) RecordJobFailed() {
	if c == nil {
		return
	}
	c.jobsFailed.Inc()
	c.jobsActive.Dec()
}
