// Package metrics registers the Prometheus collectors exported on /metrics.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the application's collectors on a private registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	emailSends      *prometheus.CounterVec
	audioConfirms   *prometheus.CounterVec
	stageChanges    *prometheus.CounterVec
}

// New registers all collectors.
func New() *Registry {
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

	emailSends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_automation_sends_total",
		Help: "Templated email attempts by outcome",
	}, []string{"status"})

	audioConfirms := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_upload_confirmations_total",
		Help: "Audio upload confirmations by file type and result",
	}, []string{"type", "result"})

	stageChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_pipeline_stage_changes_total",
		Help: "Recomputed pipeline stage transitions by target stage",
	}, []string{"stage"})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		emailSends,
		audioConfirms,
		stageChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		emailSends:      emailSends,
		audioConfirms:   audioConfirms,
		stageChanges:    stageChanges,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// ObserveHTTPRequest records one finished request.
func (r *Registry) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	code := strconv.Itoa(status)
	r.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	r.requestTotal.WithLabelValues(method, path, code).Inc()
}

// EmailSend counts one templated email outcome (sent, failed, skipped).
func (r *Registry) EmailSend(status string) {
	if r == nil {
		return
	}
	r.emailSends.WithLabelValues(status).Inc()
}

// AudioConfirm counts one upload confirmation.
func (r *Registry) AudioConfirm(fileType string, ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "missing"
	}
	r.audioConfirms.WithLabelValues(fileType, result).Inc()
}

// StageChanged counts a pipeline stage transition.
func (r *Registry) StageChanged(stage string) {
	if r == nil {
		return
	}
	r.stageChanges.WithLabelValues(stage).Inc()
}
