package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the bot's core
// outcomes.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	messagesTotal    *prometheus.CounterVec
	casesAssembled   prometheus.Counter
	quotaRejections  prometheus.Counter
	wizardsCompleted *prometheus.CounterVec
	assemblyDuration prometheus.Histogram
	exportsRendered  *prometheus.CounterVec
}

// NewMetricsService registers the bot's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	messagesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_messages_total",
		Help: "Inbound messages by kind",
	}, []string{"kind"})

	casesAssembled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_cases_assembled_total",
		Help: "Cases created by the assembly pipeline",
	})

	quotaRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_quota_rejections_total",
		Help: "Case attempts rejected by the monthly quota",
	})

	wizardsCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_wizards_completed_total",
		Help: "Wizard flows run to completion",
	}, []string{"wizard"})

	assemblyDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_assembly_duration_seconds",
		Help:    "End-to-end case assembly latency",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
	})

	exportsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_exports_rendered_total",
		Help: "Case documents rendered by format",
	}, []string{"format"})

	registry.MustRegister(requestDuration, requestTotal, messagesTotal,
		casesAssembled, quotaRejections, wizardsCompleted, assemblyDuration,
		exportsRendered)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		messagesTotal:    messagesTotal,
		casesAssembled:   casesAssembled,
		quotaRejections:  quotaRejections,
		wizardsCompleted: wizardsCompleted,
		assemblyDuration: assemblyDuration,
		exportsRendered:  exportsRendered,
	}
}

// Handler exposes the /metrics endpoint handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// CountMessage records one inbound message of the given kind.
func (s *MetricsService) CountMessage(kind string) {
	s.messagesTotal.WithLabelValues(kind).Inc()
}

// CountCaseAssembled records a successful case creation.
func (s *MetricsService) CountCaseAssembled(duration time.Duration) {
	s.casesAssembled.Inc()
	s.assemblyDuration.Observe(duration.Seconds())
}

// CountQuotaRejected records a quota rejection.
func (s *MetricsService) CountQuotaRejected() {
	s.quotaRejections.Inc()
}

// CountWizardCompleted records a wizard run to its terminal step.
func (s *MetricsService) CountWizardCompleted(wizard string) {
	s.wizardsCompleted.WithLabelValues(wizard).Inc()
}

// CountExportRendered records one rendered case document.
func (s *MetricsService) CountExportRendered(format string) {
	s.exportsRendered.WithLabelValues(format).Inc()
}
