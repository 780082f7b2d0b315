// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the keygate server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// HTTPBuckets defines histogram buckets for request latencies,
// ranging from 1ms to 5s.
var HTTPBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keygate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: HTTPBuckets,
		},
		[]string{"method"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keygate_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// AuthDecisionsTotal counts authentication outcomes by scheme
	// (accepted or rejected). Rejections with no matching rule use scheme "none".
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_auth_decisions_total",
			Help: "Authentication decisions",
		},
		[]string{"scheme", "outcome"},
	)

	// TokensIssuedTotal counts minted access tokens by source
	// ("token" endpoint or "client-credentials" header auth).
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_tokens_issued_total",
			Help: "Tokens issued",
		},
		[]string{"source"},
	)

	// StoreOperationsTotal counts record store calls by backend, operation, and outcome.
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_store_operations_total",
			Help: "Store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// StoreLatency records record store call latency in seconds.
	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keygate_store_latency_seconds",
			Help:    "Store latency",
			Buckets: HTTPBuckets,
		},
		[]string{"backend", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		AuthDecisionsTotal,
		TokensIssuedTotal,
		StoreOperationsTotal,
		StoreLatency,
	)
}
