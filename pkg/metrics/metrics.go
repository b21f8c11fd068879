package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BalanceCallsTotal counts balance provider requests by strategy
	// ("batch", "sequential", "native").
	BalanceCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_balance_calls_total",
			Help: "Balance provider RPC calls by resolution strategy.",
		},
		[]string{"strategy"},
	)

	// BalanceFetchDuration observes how long one full strategy pass takes.
	BalanceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_balance_fetch_duration_seconds",
			Help:    "Duration of a full balance resolution pass by strategy.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// PriceLookupsTotal counts price feed lookups by outcome ("hit", "miss").
	PriceLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_price_lookups_total",
			Help: "Price feed lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// CyclesTotal counts fetch cycles by result ("succeeded", "failed", "cancelled").
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cycles_total",
			Help: "Completed fetch cycles by result.",
		},
		[]string{"result"},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		BalanceCallsTotal,
		BalanceFetchDuration,
		PriceLookupsTotal,
		CyclesTotal,
	)
}
