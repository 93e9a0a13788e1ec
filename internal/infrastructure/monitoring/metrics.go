package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	// RPC metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Watch metrics
	WatchesActive      prometheus.Gauge
	NotificationsTotal prometheus.Counter
	NotificationErrors prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsbridge_requests_total",
				Help: "Total number of filesystem requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsbridge_request_duration_seconds",
				Help:    "Filesystem request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		RequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsbridge_request_errors_total",
				Help: "Total number of failed filesystem requests by kind",
			},
			[]string{"method", "kind"},
		),

		WatchesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fsbridge_watches_active",
				Help: "Number of active watch subscriptions",
			},
		),
		NotificationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fsbridge_notifications_total",
				Help: "Total number of file change notifications delivered",
			},
		),
		NotificationErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fsbridge_notification_errors_total",
				Help: "Total number of change events that failed translation",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fsbridge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fsbridge_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}
}

// RecordRequest records one dispatched filesystem request.
func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRequestError records a failed request by failure kind.
func (m *Metrics) RecordRequestError(method, kind string) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(method, kind).Inc()
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	if m == nil {
		return
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
