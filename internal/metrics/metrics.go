package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the analysis collectors. Each instance owns its registry so
// tests can build one without touching the global default.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	executionFailures prometheus.Counter
	chartsTotal       *prometheus.CounterVec
	schemaFetches     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightai_runs_total",
				Help: "Total number of analysis runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "insightai_run_duration_seconds",
				Help:    "Duration of analysis runs from question to chart",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
		),
		executionFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "insightai_query_execution_failures_total",
				Help: "Total number of failed SQL executions",
			},
		),
		chartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightai_charts_total",
				Help: "Total number of produced chart configs by chart type",
			},
			[]string{"chart_type"},
		),
		schemaFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightai_schema_fetches_total",
				Help: "Total number of schema fetches by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.executionFailures,
		m.chartsTotal,
		m.schemaFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished run. retries is the number of failed
// executions the run went through.
func (m *Metrics) ObserveRun(status, chartType string, retries int, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.executionFailures.Add(float64(retries))
	if chartType != "" {
		m.chartsTotal.WithLabelValues(chartType).Inc()
	}
}

func (m *Metrics) ObserveSchemaFetch(err error) {
	if err != nil {
		m.schemaFetches.WithLabelValues("error").Inc()
		return
	}
	m.schemaFetches.WithLabelValues("ok").Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
