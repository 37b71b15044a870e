package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "musica"

// Metrics groups the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	jobsEnqueued  *prometheus.CounterVec
	jobsCompleted *prometheus.CounterVec
	jobsFailed    *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	workersBusy   *prometheus.GaugeVec
	queueDepth    *prometheus.GaugeVec
	filesParsed   prometheus.Counter
	segments      *prometheus.CounterVec
	topLevelNodes prometheus.Counter
}

// New constructs a Metrics value registered against a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Jobs pushed onto a stage queue.",
		}, []string{"stage"}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Jobs handled successfully and removed from their queue.",
		}, []string{"stage"}),
		jobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Jobs whose stage handler returned an error.",
		}, []string{"stage", "kind"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent inside a stage handler per job.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		workersBusy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Workers currently running a stage handler.",
		}, []string{"stage"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_jobs",
			Help:      "Jobs held in each stage queue by status.",
		}, []string{"stage", "status"}),
		filesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Script files fully extracted into their segment store.",
		}),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_extracted_total",
			Help:      "Segments persisted by the extractor.",
		}, []string{"type"}),
		topLevelNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "top_level_nodes_total",
			Help:      "Top-level syntax tree nodes visited by the extractor.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsEnqueued,
		m.jobsCompleted,
		m.jobsFailed,
		m.jobDuration,
		m.workersBusy,
		m.queueDepth,
		m.filesParsed,
		m.segments,
		m.topLevelNodes,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobEnqueued records one push onto the stage queue.
func (m *Metrics) JobEnqueued(stage string) {
	if m == nil {
		return
	}
	m.jobsEnqueued.WithLabelValues(stage).Inc()
}

// JobStarted marks a worker of the stage as busy.
func (m *Metrics) JobStarted(stage string) {
	if m == nil {
		return
	}
	m.workersBusy.WithLabelValues(stage).Inc()
}

// JobCompleted records a successful handler run.
func (m *Metrics) JobCompleted(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.workersBusy.WithLabelValues(stage).Dec()
	m.jobsCompleted.WithLabelValues(stage).Inc()
	m.jobDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// JobFailed records a failed handler run classified by error kind.
func (m *Metrics) JobFailed(stage, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.workersBusy.WithLabelValues(stage).Dec()
	m.jobsFailed.WithLabelValues(stage, kind).Inc()
	m.jobDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetQueueDepth publishes the number of jobs in a stage queue with the status.
func (m *Metrics) SetQueueDepth(stage, status string, count int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(stage, status).Set(float64(count))
}

// FileParsed records the outcome of one successful extraction.
func (m *Metrics) FileParsed(messages, nonMessages, topLevel int) {
	if m == nil {
		return
	}
	m.filesParsed.Inc()
	m.segments.WithLabelValues("message").Add(float64(messages))
	m.segments.WithLabelValues("non_message").Add(float64(nonMessages))
	m.topLevelNodes.Add(float64(topLevel))
}
