package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/jd-tailor/internal/ai"
)

const namespace = "jd_tailor"

// Metrics owns a private registry so tests and multiple servers never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	oracleRequests   *prometheus.CounterVec
	oracleDuration   *prometheus.HistogramVec
	pipelineFailures *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		oracleRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_requests_total",
				Help:      "Total number of oracle calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		oracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_request_duration_seconds",
				Help:      "Oracle call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),
		pipelineFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_failures_total",
				Help:      "Pipeline failures reported as data, by pipeline and error kind",
			},
			[]string{"pipeline", "kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route", "method"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.oracleRequests,
		m.oracleDuration,
		m.pipelineFailures,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentOracle wraps an oracle so every call is counted and timed.
func (m *Metrics) InstrumentOracle(oracle ai.Oracle, provider string) ai.Oracle {
	if oracle == nil {
		return nil
	}
	return &instrumentedOracle{next: oracle, provider: provider, metrics: m}
}

// ObserveFailure records a pipeline failure reported as data.
func (m *Metrics) ObserveFailure(pipeline string, kind ai.ErrorKind) {
	label := string(kind)
	if label == "" {
		label = "unclassified"
	}
	m.pipelineFailures.WithLabelValues(pipeline, label).Inc()
}

// HTTPMiddleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = "unmatched"
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type instrumentedOracle struct {
	next     ai.Oracle
	provider string
	metrics  *Metrics
}

func (o *instrumentedOracle) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	out, err := o.next.Complete(ctx, systemPrompt, userPrompt)
	o.metrics.oracleDuration.WithLabelValues(o.provider).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = string(ai.ClassifyOracleError(err).Kind)
	}
	o.metrics.oracleRequests.WithLabelValues(o.provider, outcome).Inc()

	return out, err
}
