package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is registered on its own registry so several hosts can coexist in
// one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	actions         *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionsReaped  prometheus.Counter
	wsConnections   prometheus.Gauge
	eventsDelivered *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscripter_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autoscripter_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscripter_actions_total",
				Help: "Session actions dispatched, by type and result",
			},
			[]string{"type", "result"},
		),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "autoscripter_sessions_active",
			Help: "Number of live sessions",
		}),
		sessionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoscripter_sessions_reaped_total",
			Help: "Sessions closed by the idle reaper",
		}),
		wsConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "autoscripter_ws_connections",
			Help: "Open event stream connections",
		}),
		eventsDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscripter_events_delivered_total",
				Help: "Session events written to event streams",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordAction(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.actions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SetSessionsActive(n int) {
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) RecordReaped(n int) {
	m.sessionsReaped.Add(float64(n))
}

func (m *Metrics) WSConnected()    { m.wsConnections.Inc() }
func (m *Metrics) WSDisconnected() { m.wsConnections.Dec() }

func (m *Metrics) RecordEvent(kind string) {
	m.eventsDelivered.WithLabelValues(kind).Inc()
}
