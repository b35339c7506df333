// Package metrics exposes the dashboard's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TierAttempts counts retrieval tier outcomes per screen. The outcome
	// label is "success" or "fallback"; a fully exhausted load additionally
	// increments Exhausted.
	TierAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_retrieval_tier_attempts_total",
		Help: "Retrieval tier attempts by screen, tier and outcome.",
	}, []string{"screen", "tier", "outcome"})

	// Exhausted counts loads where every retrieval tier failed.
	Exhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_retrieval_exhausted_total",
		Help: "Screen loads that exhausted all retrieval tiers.",
	}, []string{"screen"})

	// LoadDuration observes end-to-end screen load latency.
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_screen_load_seconds",
		Help:    "Screen load duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"screen"})

	// StaleLoadsDiscarded counts in-flight loads discarded because a newer
	// load for the same screen already applied.
	StaleLoadsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_stale_loads_discarded_total",
		Help: "Screen loads discarded at apply time as stale.",
	}, []string{"screen"})
)
