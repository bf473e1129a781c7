// Package metrics defines the solver's Prometheus collectors. Wiring the
// scrape endpoint itself is out of scope (spec.md §1 treats the
// health-check surface as an external collaborator); this package only
// owns the registry and the instruments the loop updates.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector the supervisor, evaluator, and executor
// update during the steady-state loop.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal       *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	TradesEmitted    *prometheus.CounterVec
	TradesExecuted   *prometheus.CounterVec
	TradesFailed     *prometheus.CounterVec
	InFlightSize     prometheus.Gauge
	TickDuration     *prometheus.HistogramVec
	ExecuteDuration  *prometheus.HistogramVec
}

const namespace = "solver"

// New registers and returns a fresh Metrics on its own registry, so a
// test or a second solver instance in the same process never collides
// with the default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of block ticks processed, per chain.",
		}, []string{"chain_id"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_state_errors_total",
			Help:      "Number of fetchState calls that failed outright, per chain.",
		}, []string{"chain_id"}),
		TradesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_emitted_total",
			Help:      "Number of Trades the evaluator emitted, per source chain.",
		}, []string{"chain_id"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Number of Trades the executor relayed successfully, per destination chain.",
		}, []string{"chain_id"}),
		TradesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_failed_total",
			Help:      "Number of Trades the executor aborted, per destination chain and failing step.",
		}, []string{"chain_id", "step"}),
		InFlightSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_cache_size",
			Help:      "Current number of non-expired In-Flight Cache entries.",
		}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time for one fetch+evaluate+execute tick, per chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain_id"}),
		ExecuteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execute_duration_seconds",
			Help:      "Wall-clock time for one trade's approve+relay, per destination chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain_id"}),
	}

	reg.MustRegister(
		m.TicksTotal, m.FetchErrorsTotal, m.TradesEmitted, m.TradesExecuted,
		m.TradesFailed, m.InFlightSize, m.TickDuration, m.ExecuteDuration,
	)
	return m
}
