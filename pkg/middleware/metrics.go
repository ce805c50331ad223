package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dirroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "dirroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for chain execution.
type metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestErrors      *prometheus.CounterVec
	shortCircuitsTotal *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance, created on first call to
// Prometheus(). Repeated calls reuse it so collectors register only once.
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total requests executed through resolved chains",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Chain execution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_errors_total",
			Help:        "Total chain executions that returned an error",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method"}),

		shortCircuitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "short_circuits_total",
			Help:        "Total chain executions stopped early by a middleware",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method"}),
	}
}

// Prometheus creates middleware that records request metrics for every
// chain execution.
//
// Metrics collected:
//   - dirroute_requests_total: Counter by route and method
//   - dirroute_request_duration_seconds: Histogram by route and method
//   - dirroute_request_errors_total: Counter of failed executions
//   - dirroute_short_circuits_total: Counter of early chain exits
//
// Declare it in the root directory's middleware so it wraps every route.
func Prometheus(opts ...MetricsOption) Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(config)
	})
	m := globalMetrics

	return Func(func(c *Ctx, next Next) (Outcome, error) {
		start := time.Now()
		out, err := next(c)
		elapsed := time.Since(start).Seconds()

		m.requestsTotal.WithLabelValues(c.Route, c.Method).Inc()
		m.requestDuration.WithLabelValues(c.Route, c.Method).Observe(elapsed)
		if err != nil {
			m.requestErrors.WithLabelValues(c.Route, c.Method).Inc()
		}
		if out.Halted() {
			m.shortCircuitsTotal.WithLabelValues(c.Route, c.Method).Inc()
		}

		return out, err
	})
}
