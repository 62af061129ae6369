// Package metrics holds the Prometheus instruments shared across the bank.
// All collectors are registered on the default registry via promauto and
// exposed through /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts ledger transfers by outcome
	// (committed, insufficient_funds, error).
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_transfers_total",
		Help: "Total ledger transfers attempted, labeled by outcome",
	}, []string{"outcome"})

	// TransferDuration tracks end-to-end transfer latency including the
	// database transaction.
	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bank_transfer_duration_seconds",
		Help:    "Latency distribution of ledger transfers",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// TanConfirmationsTotal counts TAN confirmation attempts by outcome
	// (confirmed, wrong_code, expired, exhausted, consumed).
	TanConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_tan_confirmations_total",
		Help: "Total TAN confirmation attempts, labeled by outcome",
	}, []string{"outcome"})

	// LongPollWaiters gauges the number of history requests currently
	// parked waiting for new transactions.
	LongPollWaiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bank_long_poll_waiters",
		Help: "History requests currently blocked in a long poll",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration tracks HTTP handler latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)
