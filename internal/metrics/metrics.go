// Package metrics exposes Prometheus counters and histograms for translation
// calls, pipeline runs and the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gnurante/internal/pipeline"
	"gnurante/internal/translate"
)

const namespace = "gnurante"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	backendCalls    *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	units           *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	unitsSubstitute prometheus.Counter
	requests        *prometheus.CounterVec
	activeRuns      prometheus.Gauge
}

// New creates and registers all collectors. Process and Go runtime
// collectors are included.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Translation backend calls by backend and result.",
		}, []string{"backend", "result"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_seconds",
			Help:      "Latency of single translation backend calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"backend"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_units_total",
			Help:      "Translation units by backend and outcome.",
		}, []string{"backend", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_seconds",
			Help:      "Time spent reaching each pipeline state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Finished pipeline runs by outcome and the stage reached or failed.",
		}, []string{"outcome", "stage"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_seconds",
			Help:      "End to end pipeline run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		unitsSubstitute: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_units_substituted_total",
			Help:      "Failed units replaced with their source text.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_active_runs",
			Help:      "Pipeline runs currently in progress.",
		}),
	}
	registry.MustRegister(
		m.backendCalls,
		m.backendLatency,
		m.units,
		m.stageDuration,
		m.runs,
		m.runDuration,
		m.unitsSubstitute,
		m.requests,
		m.activeRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCall implements translate.Observer.
func (m *Metrics) ObserveCall(backend, result string, elapsed time.Duration) {
	m.backendCalls.WithLabelValues(backend, result).Inc()
	m.backendLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveUnit implements translate.Observer.
func (m *Metrics) ObserveUnit(backend string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.units.WithLabelValues(backend, outcome).Inc()
}

// StageCompleted implements pipeline.Recorder.
func (m *Metrics) StageCompleted(stage pipeline.State, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage.String()).Observe(elapsed.Seconds())
}

// RunFinished implements pipeline.Recorder.
func (m *Metrics) RunFinished(outcome string, stage pipeline.State, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome, stage.String()).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// UnitsSubstituted implements pipeline.Recorder.
func (m *Metrics) UnitsSubstituted(n int) {
	m.unitsSubstitute.Add(float64(n))
}

// RunStarted increments the in-flight run gauge.
func (m *Metrics) RunStarted() { m.activeRuns.Inc() }

// RunDone decrements the in-flight gauge.
func (m *Metrics) RunDone() { m.activeRuns.Dec() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var (
	_ translate.Observer = (*Metrics)(nil)
	_ pipeline.Recorder  = (*Metrics)(nil)
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware counts requests by route label and status code. route
// maps a request to a bounded label, typically the chi route pattern.
func RequestMiddleware(m *Metrics, route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			label := "unmatched"
			if route != nil {
				if pattern := route(r); pattern != "" {
					label = pattern
				}
			}
			m.requests.WithLabelValues(label, strconv.Itoa(wrap.status)).Inc()
		})
	}
}
