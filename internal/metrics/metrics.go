package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Completion triggers for SessionsCompleted.
const (
	TriggerAuto     = "auto"
	TriggerExplicit = "explicit"
)

// Metrics owns its registry so every server (and every test) gets a clean set.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SessionsStarted   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec
	CascadeRetries    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jumpingkids_training_sessions_started_total",
			Help: "Training sessions created",
		}),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumpingkids_training_sessions_completed_total",
				Help: "Training sessions that reached COMPLETED, by trigger",
			},
			[]string{"trigger"},
		),
		CascadeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jumpingkids_training_cascade_retries_total",
			Help: "Session completion cascades retried after a write conflict",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.SessionsStarted,
		m.SessionsCompleted,
		m.CascadeRetries,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
