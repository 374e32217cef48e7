// Package observability holds the Prometheus metrics for the server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the billsplit server.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration       *prometheus.HistogramVec
	requestsTotal         *prometheus.CounterVec
	balanceRuns           prometheus.Counter
	shareFetchFailures    prometheus.Counter
	unknownSettlementRefs prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billsplit_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billsplit_requests_total",
				Help: "Total HTTP requests processed.",
			},
			[]string{"route", "status"},
		),
		balanceRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billsplit_balance_computations_total",
				Help: "Total balance computations performed.",
			},
		),
		shareFetchFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billsplit_share_fetch_failures_total",
				Help: "Expenses whose share rows could not be fetched during a balance computation.",
			},
		),
		unknownSettlementRefs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billsplit_unknown_settlement_refs_total",
				Help: "Settlement endpoints that referenced no current roster entry.",
			},
		),
	}
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(route, status string, d time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	m.requestsTotal.WithLabelValues(route, status).Inc()
}

// RecordBalanceRun records one balance computation and its degradation
// counters.
func (m *Metrics) RecordBalanceRun(shareFailures, unknownRefs int) {
	m.balanceRuns.Inc()
	m.shareFetchFailures.Add(float64(shareFailures))
	m.unknownSettlementRefs.Add(float64(unknownRefs))
}
