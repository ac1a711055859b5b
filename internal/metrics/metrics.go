// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all gateway metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeStreams   prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llamagate",
				Name:      "requests_total",
				Help:      "Total number of requests handled by the gateway",
			},
			[]string{"path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "llamagate",
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"path"},
		),
		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "llamagate",
				Name:      "active_streams",
				Help:      "Number of streaming responses currently being relayed",
			},
		),
	}

	c.registry.MustRegister(c.requestsTotal, c.requestDuration, c.activeStreams)
	return c
}

// RecordRequest records one completed request.
func (c *Collector) RecordRequest(path string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// StreamStarted marks a streaming relay as in flight. The returned func must
// be called when the stream ends.
func (c *Collector) StreamStarted() func() {
	c.activeStreams.Inc()
	return c.activeStreams.Dec
}

// Handler returns the Prometheus scrape handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
