// Package metrics exposes Prometheus instruments for interpretations, model
// usage and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heme-genetics-advisor/internal/domain"
)

// Interpretation outcome labels.
const (
	StatusOK             = "ok"
	StatusInvalidInput   = "invalid_input"
	StatusTransportError = "transport_error"
	StatusParseError     = "parse_error"
	StatusSchemaError    = "schema_error"
)

// Metrics holds the instruments on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	InterpretDuration *prometheus.HistogramVec
	InterpretTotal    *prometheus.CounterVec
	LLMTokensUsed     *prometheus.CounterVec
	CitationsCount    prometheus.Histogram
	ProvenanceTotal   *prometheus.CounterVec
	MissingFields     prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates and registers every instrument.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InterpretDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heme_interpret_duration_seconds",
				Help:    "Interpretation duration in seconds, model call included",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"mode", "status"},
		),
		InterpretTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heme_interpret_total",
				Help: "Total number of interpretations by outcome",
			},
			[]string{"mode", "status"},
		),
		LLMTokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heme_llm_tokens_used",
				Help: "Total model tokens used",
			},
			[]string{"model", "type"},
		),
		CitationsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "heme_citations_count",
				Help:    "Number of distinct cited locations per interpretation",
				Buckets: []float64{0, 1, 2, 5, 10, 20},
			},
		),
		ProvenanceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heme_provenance_total",
				Help: "Interpretations by provenance of the answer",
			},
			[]string{"provenance"},
		),
		MissingFields: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "heme_missing_fields_total",
				Help: "Required report fields absent from model replies",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heme_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heme_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.InterpretDuration,
		m.InterpretTotal,
		m.LLMTokensUsed,
		m.CitationsCount,
		m.ProvenanceTotal,
		m.MissingFields,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveInterpretation records one finished interpretation.
func (m *Metrics) ObserveInterpretation(mode domain.ReportMode, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InterpretTotal.WithLabelValues(string(mode), status).Inc()
	m.InterpretDuration.WithLabelValues(string(mode), status).Observe(elapsed.Seconds())
}

// ObserveResult records what a successful interpretation produced.
func (m *Metrics) ObserveResult(provenance domain.Provenance, citations, missing int) {
	if m == nil {
		return
	}
	m.ProvenanceTotal.WithLabelValues(string(provenance)).Inc()
	m.CitationsCount.Observe(float64(citations))
	m.MissingFields.Add(float64(missing))
}

// AddTokens records model token usage.
func (m *Metrics) AddTokens(model string, usage domain.TokenUsage) {
	if m == nil {
		return
	}
	m.LLMTokensUsed.WithLabelValues(model, "input").Add(float64(usage.InputTokens))
	m.LLMTokensUsed.WithLabelValues(model, "output").Add(float64(usage.OutputTokens))
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
