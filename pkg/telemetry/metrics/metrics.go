package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the relay's Prometheus registry and metric families.
type Collector struct {
	registry *prometheus.Registry

	// requests counts relayed requests by logical operation and final status.
	requests *prometheus.CounterVec

	// duration tracks end-to-end request latency per operation.
	duration *prometheus.HistogramVec

	// upstreamAttempts counts upstream calls by auth style and status class.
	upstreamAttempts *prometheus.CounterVec

	// upstreamRetries counts transient retries by operation.
	upstreamRetries *prometheus.CounterVec

	// gateRejections counts requests refused by the admission gate.
	gateRejections prometheus.Counter
}

// NewCollector creates and registers all relay metrics on a fresh registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "astrorelay"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Relayed requests by logical operation and final HTTP status.",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request latency per logical operation.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		upstreamAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_attempts_total",
				Help:      "Upstream calls by credential transport style and HTTP status.",
			},
			[]string{"style", "status"},
		),
		upstreamRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_retries_total",
				Help:      "Transient upstream retries by logical operation.",
			},
			[]string{"operation"},
		),
		gateRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_rejections_total",
				Help:      "Requests refused by the per-caller admission gate.",
			},
		),
	}

	c.registry.MustRegister(
		c.requests,
		c.duration,
		c.upstreamAttempts,
		c.upstreamRetries,
		c.gateRejections,
	)

	return c
}

// ObserveRequest records one completed relay request.
func (c *Collector) ObserveRequest(operation string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveUpstreamAttempt records one upstream call outcome. Style is the
// redacted auth-style tag; a zero status means a transport failure.
func (c *Collector) ObserveUpstreamAttempt(style string, status int, retries int, operation string) {
	c.upstreamAttempts.WithLabelValues(style, strconv.Itoa(status)).Inc()
	if retries > 0 {
		c.upstreamRetries.WithLabelValues(operation).Add(float64(retries))
	}
}

// ObserveGateRejection records one admission-gate refusal.
func (c *Collector) ObserveGateRejection() {
	c.gateRejections.Inc()
}

// Handler returns the Prometheus exposition endpoint for this registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
