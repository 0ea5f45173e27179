// Package observability provides Prometheus metrics for the swap engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus metrics.
type Metrics struct {
	SwapsStarted   prometheus.Counter
	SwapsConfirmed prometheus.Counter
	SwapsFailed    *prometheus.CounterVec
	SwapAttempts   prometheus.Histogram

	QuoteLatency      prometheus.Histogram
	BroadcastRetries  prometheus.Counter
	AccountsCreated   prometheus.Counter
	ConfirmationsPoll prometheus.Counter

	SamplerSeriesSize prometheus.Gauge
	SamplerErrors     prometheus.Counter
}

// New creates metrics registered against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SwapsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "swap_requests_total",
			Help: "Number of swap requests accepted by the orchestrator.",
		}),
		SwapsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "swap_confirmed_total",
			Help: "Number of swaps that reached confirmed finality.",
		}),
		SwapsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swap_failed_total",
			Help: "Number of failed swaps by error kind.",
		}, []string{"kind"}),
		SwapAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "swap_attempts",
			Help:    "Whole-swap attempts consumed per request.",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		}),
		QuoteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quote_latency_seconds",
			Help:    "Latency of aggregator quote requests.",
			Buckets: prometheus.DefBuckets,
		}),
		BroadcastRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "broadcast_retries_total",
			Help: "Number of rate-limited broadcast retries.",
		}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_accounts_created_total",
			Help: "Number of associated token accounts created.",
		}),
		ConfirmationsPoll: factory.NewCounter(prometheus.CounterOpts{
			Name: "confirmation_polls_total",
			Help: "Number of signature status polls issued.",
		}),
		SamplerSeriesSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "market_sampler_series_size",
			Help: "Number of price samples currently retained.",
		}),
		SamplerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "market_sampler_errors_total",
			Help: "Number of failed sampling rounds.",
		}),
	}
}

// Default creates metrics on a fresh registry and returns both.
func Default() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

// Handler returns an HTTP handler exposing the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
