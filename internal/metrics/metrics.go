// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package metrics provides Prometheus metrics collection for observability.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format and
// cover the model lifecycle (loads, cache behaviour, evictions) and the
// recommendation engine (request latency, interaction tracking).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModelLoadsTotal counts model load attempts by result.
	// Labels: result (success, failure, memory_hit, cache_hit, coalesced)
	ModelLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_loads_total",
		Help: "Total model load attempts by result",
	}, []string{"result"})

	// ModelLoadDuration tracks end-to-end load latency in seconds.
	ModelLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "model_load_duration_seconds",
		Help:    "Model load latency from request to ready handle",
		Buckets: []float64{.05, .1, .5, 1, 5, 10, 30, 60},
	})

	// ModelsLoaded is the number of artifacts currently held in memory.
	ModelsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "models_loaded",
		Help: "Artifacts currently loaded in memory",
	})

	// ModelMemoryBytes is the declared size sum of loaded artifacts.
	ModelMemoryBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "model_memory_bytes",
		Help: "Approximate memory held by loaded artifacts (declared sizes)",
	})

	// CacheOpsTotal counts persistent cache operations by op and result.
	// Labels: op (get, set, delete), result (hit, miss, ok, error)
	CacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_ops_total",
		Help: "Persistent artifact cache operations",
	}, []string{"op", "result"})

	// CacheEvictionsTotal counts evicted cache records by reason.
	// Labels: reason (lru, age, explicit)
	CacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_evictions_total",
		Help: "Artifact cache records evicted",
	}, []string{"reason"})

	// CacheSizeBytes is the current persistent cache footprint.
	CacheSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "model_cache_size_bytes",
		Help: "Total payload bytes held in the persistent cache",
	})

	// RegistryFeedFetchesTotal counts registry feed fetches by result.
	// Labels: result (ok, error, circuit_open)
	RegistryFeedFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_feed_fetches_total",
		Help: "Registry feed fetch attempts",
	}, []string{"result"})

	// RecommendationDuration tracks recommendation latency per intent.
	// Labels: intent (next_content, similar_content, difficulty_adjusted,
	// exam_preparation, gap_filling)
	RecommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_duration_seconds",
		Help:    "Recommendation request latency by intent",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
	}, []string{"intent"})

	// RecommendationsReturned tracks how many items each request produced.
	RecommendationsReturned = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendations_returned",
		Help:    "Number of recommendations returned per request",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	}, []string{"intent"})

	// InteractionsTrackedTotal counts tracked interaction events by action.
	InteractionsTrackedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interactions_tracked_total",
		Help: "Interaction events folded into the interaction matrix",
	}, []string{"action"})

	// CircuitBreakerState reports breaker state (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"name"})

	// HTTPRequestsTotal counts handled HTTP requests.
	// Labels: method, path (route pattern), status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests handled by method, route, and status",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks HTTP handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP handler latency by method and route",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"method", "path"})
)
