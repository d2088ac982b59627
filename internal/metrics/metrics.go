// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package metrics provides Prometheus instrumentation for the journey
// pipeline, exposed at /metrics in Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Job intake
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_jobs_submitted_total",
			Help: "Total number of journey jobs accepted for processing",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_cache_hits_total",
			Help: "Total number of submissions answered by a completed cached job",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_cache_misses_total",
			Help: "Total number of submissions with no reusable completed job",
		},
	)

	CacheBypasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_cache_bypasses_total",
			Help: "Total number of submissions that explicitly skipped cache lookup",
		},
	)

	// Pipeline stages
	QuarterTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_quarter_transitions_total",
			Help: "Total number of quarter status transitions applied",
		},
		[]string{"to"},
	)

	StaleTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_stale_transitions_total",
			Help: "Total number of redelivered messages whose transition was already applied",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journey_stage_duration_seconds",
			Help:    "Duration of pipeline stage handlers in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_messages_handled_total",
			Help: "Total number of pipeline messages handled by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	// Upstream match data client
	RiotRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riot_requests_total",
			Help: "Total number of Riot API requests by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)

	RiotRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "riot_request_retries_total",
			Help: "Total number of Riot API request retries",
		},
	)

	RiotRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riot_request_duration_seconds",
			Help:    "Duration of Riot API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Narrative generator
	NarrativeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_requests_total",
			Help: "Total number of narrative generation requests by outcome",
		},
		[]string{"outcome"},
	)

	NarrativeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "narrative_fallbacks_total",
			Help: "Total number of quarters that shipped with deterministic fallback text",
		},
	)

	// HTTP API
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RecordStage observes a stage handler's duration.
func RecordStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordTransition counts an applied quarter transition.
func RecordTransition(to string, applied bool) {
	if applied {
		QuarterTransitions.WithLabelValues(to).Inc()
		return
	}
	StaleTransitions.Inc()
}
