// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package metrics holds the Prometheus collectors for crawl observability and
// the router that exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Storefront request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamescout_requests_total",
			Help: "Total storefront requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, rate_limited, forbidden, not_found, transient, malformed, rejected
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamescout_request_duration_seconds",
			Help:    "Storefront request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	RateLimitCooldowns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gamescout_rate_limit_cooldowns_total",
			Help: "Number of cooldown waits triggered by HTTP 429",
		},
	)

	// Pipeline metrics
	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamescout_items_processed_total",
			Help: "Identifiers processed by outcome",
		},
		[]string{"outcome"}, // accepted, filtered, error
	)

	ItemsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamescout_items_filtered_total",
			Help: "Identifiers filtered out by reason",
		},
		[]string{"reason"},
	)

	ReviewsKept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gamescout_reviews_kept_total",
			Help: "Reviews accepted after language filtering",
		},
	)

	ReviewsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamescout_reviews_dropped_total",
			Help: "Reviews dropped by reason",
		},
		[]string{"reason"}, // empty, language, detector
	)

	CheckpointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamescout_checkpoints_total",
			Help: "Checkpoint writes by result",
		},
		[]string{"result"},
	)

	CheckpointDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gamescout_checkpoint_duration_seconds",
			Help:    "Time spent writing one checkpoint across all sinks",
			Buckets: prometheus.DefBuckets,
		},
	)

	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gamescout_collection_size",
			Help: "Records held by the collector",
		},
		[]string{"kind"}, // apps, reviews
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRequest records one storefront request.
func RecordRequest(endpoint, outcome string, duration time.Duration) {
	RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCheckpoint records one checkpoint attempt.
func RecordCheckpoint(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CheckpointsTotal.WithLabelValues(result).Inc()
	CheckpointDuration.Observe(duration.Seconds())
}

// SetCollectionSize updates the collector size gauges.
func SetCollectionSize(apps, reviews int) {
	CollectionSize.WithLabelValues("apps").Set(float64(apps))
	CollectionSize.WithLabelValues("reviews").Set(float64(reviews))
}
