package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection. Each collector owns
// its registry. All Record methods are safe on a nil receiver.
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	bookingsTotal       *prometheus.CounterVec
	paymentsTotal       *prometheus.CounterVec
	resultsReleased     prometheus.Counter
	mirrorWritesTotal   *prometheus.CounterVec
	mirrorQueueDepth    prometheus.Gauge
	chatbotMessages     *prometheus.CounterVec
	systemErrors        *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &MetricsCollector{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "endpoint", "status_code"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "endpoint"}),

		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_total",
			Help:        "Booking attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "payments_recorded_total",
			Help:        "Recorded payments by method",
			ConstLabels: constLabels,
		}, []string{"method"}),

		resultsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "results_released_total",
			Help:        "Test results released to patients",
			ConstLabels: constLabels,
		}),

		mirrorWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "mirror_writes_total",
			Help:        "Document store mirror writes by collection and outcome",
			ConstLabels: constLabels,
		}, []string{"collection", "outcome"}),

		mirrorQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "mirror_queue_depth",
			Help:        "Pending document store writes",
			ConstLabels: constLabels,
		}),

		chatbotMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "chatbot_messages_total",
			Help:        "Chatbot messages by whether a topic matched",
			ConstLabels: constLabels,
		}, []string{"matched"}),

		systemErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "system_errors_total",
			Help:        "Total number of system errors",
			ConstLabels: constLabels,
		}, []string{"error_type", "component"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.bookingsTotal,
		m.paymentsTotal,
		m.resultsReleased,
		m.mirrorWritesTotal,
		m.mirrorQueueDepth,
		m.chatbotMessages,
		m.systemErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the collector's registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordBooking records a booking attempt; outcome is "booked" or an error type
func (m *MetricsCollector) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordPayment records a payment by method
func (m *MetricsCollector) RecordPayment(method string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(method).Inc()
}

// RecordResultReleased counts a result release
func (m *MetricsCollector) RecordResultReleased() {
	if m == nil {
		return
	}
	m.resultsReleased.Inc()
}

// RecordMirrorWrite records a mirror write outcome: "ok", "retry", "failed" or "dropped"
func (m *MetricsCollector) RecordMirrorWrite(collection, outcome string) {
	if m == nil {
		return
	}
	m.mirrorWritesTotal.WithLabelValues(collection, outcome).Inc()
}

// SetMirrorQueueDepth records pending mirror writes
func (m *MetricsCollector) SetMirrorQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.mirrorQueueDepth.Set(float64(depth))
}

// RecordChatbotMessage records whether a chatbot message matched a topic
func (m *MetricsCollector) RecordChatbotMessage(matched bool) {
	if m == nil {
		return
	}
	m.chatbotMessages.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	if m == nil {
		return
	}
	m.systemErrors.WithLabelValues(errorType, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
