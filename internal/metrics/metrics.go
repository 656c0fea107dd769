// Package metrics exposes prometheus collectors for the analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_analyze_requests_total",
			Help: "Total number of analyze requests by HTTP status and result source",
		},
		[]string{"status", "source"},
	)

	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_analyze_duration_seconds",
			Help:    "End-to-end duration of analyze requests in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_provider_calls_total",
			Help: "Total number of provider calls by outcome class",
		},
		[]string{"provider", "class"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_provider_call_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_provider_tokens_total",
			Help: "Tokens consumed by provider calls",
		},
		[]string{"provider", "direction"},
	)

	ProviderCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_provider_cost_usd_total",
			Help: "Estimated provider spend in USD",
		},
		[]string{"provider"},
	)
)
