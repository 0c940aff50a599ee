package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the audio service.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	uploadsStoredTotal      prometheus.Counter
	uploadsRejectedTotal    prometheus.Counter
	reflectionsCreatedTotal prometheus.Counter
	storedObjects           prometheus.Gauge
	errorsTotal             prometheus.Counter
}

// New creates and registers Prometheus metrics for the audio service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_requests_total",
		Help: "Total number of HTTP requests received",
	})
	uploadsStoredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_uploads_stored_total",
		Help: "Total number of audio objects successfully stored",
	})
	uploadsRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_uploads_rejected_total",
		Help: "Total number of uploads rejected before storage (size, format, or bad body)",
	})
	reflectionsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_reflections_created_total",
		Help: "Total number of reflections created",
	})
	storedObjects := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "audio_stored_objects",
		Help: "Number of audio objects currently in the store",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		uploadsStoredTotal,
		uploadsRejectedTotal,
		reflectionsCreatedTotal,
		storedObjects,
		errorsTotal,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		uploadsStoredTotal:      uploadsStoredTotal,
		uploadsRejectedTotal:    uploadsRejectedTotal,
		reflectionsCreatedTotal: reflectionsCreatedTotal,
		storedObjects:           storedObjects,
		errorsTotal:             errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncUploadsStored increments the stored uploads counter.
func (m *Metrics) IncUploadsStored() {
	m.uploadsStoredTotal.Inc()
}

// IncUploadsRejected increments the rejected uploads counter.
func (m *Metrics) IncUploadsRejected() {
	m.uploadsRejectedTotal.Inc()
}

// IncReflectionsCreated increments the reflections counter.
func (m *Metrics) IncReflectionsCreated() {
	m.reflectionsCreatedTotal.Inc()
}

// SetStoredObjects sets the stored objects gauge.
func (m *Metrics) SetStoredObjects(n int) {
	m.storedObjects.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. stored objects).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
