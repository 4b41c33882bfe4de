// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WalletOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Balance operations by type and outcome",
		},
		[]string{"operation", "result"},
	)

	WalletOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_operation_duration_seconds",
			Help:    "Time spent applying a balance operation, lock wait included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WalletsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallets_created_total",
			Help: "Total number of wallets created",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_api_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordOperation counts one balance operation. result is ResultSuccess or a
// short failure reason such as "insufficient_funds".
func RecordOperation(operation, result string, duration float64) {
	WalletOperationsTotal.WithLabelValues(operation, result).Inc()
	WalletOperationDuration.WithLabelValues(operation).Observe(duration)
}

func RecordWalletCreated() {
	WalletsCreatedTotal.Inc()
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
