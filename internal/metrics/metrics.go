// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Ingestion throughput (messages, tokens, parse failures)
// - Generation latency and outcomes
// - Model size and version
// - Persistence snapshot performance
// - API endpoint latency and throughput

var (
	// Ingestion metrics
	MessagesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yapcore_messages_ingested_total",
			Help: "Total number of chat messages consumed by the ingest pipeline",
		},
	)

	MessagesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yapcore_messages_skipped_total",
			Help: "Total number of messages skipped before training",
		},
		[]string{"reason"}, // "command", "link", "empty", "decode_error"
	)

	TokensTrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yapcore_tokens_trained_total",
			Help: "Total number of tokens fed into the transition model",
		},
	)

	// Generation metrics
	GenerateRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yapcore_generate_requests_total",
			Help: "Total number of generation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "unknown_start_word", "empty_model"
	)

	GenerateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yapcore_generate_duration_seconds",
			Help:    "Duration of a single generation walk in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	GeneratedWords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yapcore_generated_words",
			Help:    "Word count of generated messages",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 50},
		},
	)

	// Model metrics
	ModelTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yapcore_model_tokens",
			Help: "Number of distinct tokens in the transition table",
		},
	)

	ModelTransitions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yapcore_model_transitions",
			Help: "Number of distinct transition edges in the model",
		},
	)

	ModelStartWords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yapcore_model_start_words",
			Help: "Number of distinct start words in the model",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yapcore_model_version",
			Help: "Model mutation counter, increments once per trained message",
		},
	)

	// Persistence metrics
	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yapcore_snapshot_duration_seconds",
			Help:    "Duration of model snapshot persistence in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yapcore_snapshot_errors_total",
			Help: "Total number of failed model snapshot saves",
		},
	)

	SnapshotsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yapcore_snapshots_saved_total",
			Help: "Total number of successful model snapshot saves",
		},
	)

	ModelLoadCorruptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yapcore_model_load_corruptions_total",
			Help: "Times a persisted model was unreadable and replaced with an empty model",
		},
	)

	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yapcore_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yapcore_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yapcore_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, path string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	APIRequestDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, path, s).Inc()
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordGenerate records one generation request with its outcome and timing.
func RecordGenerate(outcome string, duration time.Duration, words int) {
	GenerateRequests.WithLabelValues(outcome).Inc()
	GenerateDuration.Observe(duration.Seconds())
	if words > 0 {
		GeneratedWords.Observe(float64(words))
	}
}

// UpdateModelStats publishes the current model size gauges.
func UpdateModelStats(tokens, transitions, startWords int, version uint64) {
	ModelTokens.Set(float64(tokens))
	ModelTransitions.Set(float64(transitions))
	ModelStartWords.Set(float64(startWords))
	ModelVersion.Set(float64(version))
}
