package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route labels for answered queries.
const (
	RouteFastPath = "fast_path"
	RouteAgent    = "agent"
	RouteError    = "error"
)

// Metrics holds the service's Prometheus collectors on its own registry.
type Metrics struct {
	registry         *prometheus.Registry
	queriesTotal     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	toolCallsTotal   *prometheus.CounterVec
	sinkFailures     prometheus.Counter
	stepLimitReached prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_assistant_queries_total",
				Help: "Total number of chat queries by route",
			},
			[]string{"route"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retail_assistant_query_duration_milliseconds",
				Help:    "Chat query duration in milliseconds",
				Buckets: []float64{5, 10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
			},
			[]string{"route"},
		),
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_assistant_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "status"},
		),
		sinkFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "retail_assistant_interaction_sink_failures_total",
				Help: "Interactions that could not be written to the sink",
			},
		),
		stepLimitReached: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "retail_assistant_step_limit_total",
				Help: "Agent runs stopped by the step limit",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queriesTotal,
		m.queryDuration,
		m.toolCallsTotal,
		m.sinkFailures,
		m.stepLimitReached,
	)
	return m
}

func (m *Metrics) ObserveQuery(route string, d time.Duration) {
	m.queriesTotal.WithLabelValues(route).Inc()
	m.queryDuration.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}

// ObserveTool counts a tool call; it satisfies the agent's tool recorder.
func (m *Metrics) ObserveTool(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.toolCallsTotal.WithLabelValues(name, status).Inc()
}

func (m *Metrics) SinkFailed() { m.sinkFailures.Inc() }

func (m *Metrics) StepLimitReached() { m.stepLimitReached.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
