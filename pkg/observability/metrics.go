package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the gateway. Each collector
// owns its registry, so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// GraphQL metrics
	GraphQLErrors *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Connection metrics
	LeaseWait   *prometheus.HistogramVec
	LeasesInUse *prometheus.GaugeVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GraphQLErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graphql_errors_total",
				Help:      "GraphQL errors returned to callers, by error code",
			},
			[]string{"code"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of storage adapter operations",
			},
			[]string{"backend", "operation", "outcome"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Storage adapter operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		LeaseWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "connection_lease_wait_seconds",
				Help:      "Time spent waiting for a connection handle",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"mode", "outcome"},
		),
		LeasesInUse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_leases_in_use",
				Help:      "Connection handles currently checked out",
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.GraphQLErrors,
		c.StoreOperations,
		c.StoreDuration,
		c.LeaseWait,
		c.LeasesInUse,
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGraphQLError counts one error in a GraphQL response
func (c *Collector) RecordGraphQLError(code string) {
	c.GraphQLErrors.WithLabelValues(code).Inc()
}

// RecordStoreOperation records one adapter call
func (c *Collector) RecordStoreOperation(backend, operation, outcome string, duration time.Duration) {
	c.StoreOperations.WithLabelValues(backend, operation, outcome).Inc()
	c.StoreDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// ObserveLeaseWait records how long an acquisition waited.
func (c *Collector) ObserveLeaseWait(mode string, wait time.Duration, err error) {
	outcome := "acquired"
	if err != nil {
		outcome = "failed"
	}
	c.LeaseWait.WithLabelValues(mode, outcome).Observe(wait.Seconds())
}

// LeaseAcquired tracks a handle being checked out.
func (c *Collector) LeaseAcquired(mode string) {
	c.LeasesInUse.WithLabelValues(mode).Inc()
}

// LeaseReleased tracks a handle being returned.
func (c *Collector) LeaseReleased(mode string) {
	c.LeasesInUse.WithLabelValues(mode).Dec()
}
