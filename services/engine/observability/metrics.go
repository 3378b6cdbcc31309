// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the assessment
// engine.
//
// # Description
//
// Metrics cover the whole orchestration pipeline:
//   - Assessment counters and latency (by status)
//   - Producer call counters and latency (by producer, outcome)
//   - Fallback substitutions (by producer)
//   - Enrichment outcomes
//   - Risk-tier distribution of returned assessments
//
// # Integration
//
// Exposed via the /metrics endpoint. All helper methods are nil-safe so
// instrumented code paths work unchanged in tests that skip InitMetrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace and subsystem for all engine metrics.
const (
	metricsNamespace = "harmlens"
	engineSubsystem  = "engine"
)

// EngineMetrics holds all Prometheus metrics for the assessment pipeline.
//
// Initialize once at startup via InitMetrics(); repeated calls return the
// existing instance so tests can construct multiple engines against the
// default registry.
type EngineMetrics struct {
	// AssessmentsTotal counts assessment requests by final status.
	// Labels: status (success, invalid_input, error)
	AssessmentsTotal *prometheus.CounterVec

	// AssessmentDurationSeconds measures end-to-end assessment latency.
	// Labels: status (success, invalid_input, error)
	AssessmentDurationSeconds *prometheus.HistogramVec

	// ProducerCallsTotal counts signal producer calls.
	// Labels: producer (emotion, intent, truth, pattern, temporal),
	// outcome (ok, error)
	ProducerCallsTotal *prometheus.CounterVec

	// ProducerLatencySeconds measures per-producer call latency.
	// Labels: producer
	ProducerLatencySeconds *prometheus.HistogramVec

	// FallbacksTotal counts default substitutions after producer failures.
	// Labels: producer
	FallbacksTotal *prometheus.CounterVec

	// EnrichmentTotal counts narrative enrichment attempts.
	// Labels: outcome (ok, error, disabled)
	EnrichmentTotal *prometheus.CounterVec

	// RiskLevelTotal counts returned assessments by risk tier.
	// Labels: level (Low, Medium, High)
	RiskLevelTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *EngineMetrics

// InitMetrics initializes and registers the default metrics instance.
//
// Idempotent: a second call returns the already-registered instance rather
// than panicking on duplicate registration.
func InitMetrics() *EngineMetrics {
	if DefaultMetrics != nil {
		return DefaultMetrics
	}

	DefaultMetrics = &EngineMetrics{
		AssessmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "assessments_total",
				Help:      "Total assessment requests by final status",
			},
			[]string{"status"},
		),

		AssessmentDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "assessment_duration_seconds",
				Help:      "End-to-end assessment latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),

		ProducerCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "producer_calls_total",
				Help:      "Total signal producer calls by producer and outcome",
			},
			[]string{"producer", "outcome"},
		),

		ProducerLatencySeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "producer_latency_seconds",
				Help:      "Signal producer call latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"producer"},
		),

		FallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "fallbacks_total",
				Help:      "Total default substitutions after producer failures",
			},
			[]string{"producer"},
		),

		EnrichmentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "enrichment_total",
				Help:      "Total narrative enrichment attempts by outcome",
			},
			[]string{"outcome"},
		),

		RiskLevelTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "risk_level_total",
				Help:      "Returned assessments by risk tier",
			},
			[]string{"level"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Label Values
// =============================================================================

// Outcome labels for producer and enrichment counters.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeDisabled = "disabled"
)

// Status labels for assessment counters.
const (
	StatusSuccess      = "success"
	StatusInvalidInput = "invalid_input"
	StatusError        = "error"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordAssessment records a completed assessment request.
func (m *EngineMetrics) RecordAssessment(status string, seconds float64) {
	if m == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(status).Inc()
	m.AssessmentDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordProducerCall records one signal producer call.
func (m *EngineMetrics) RecordProducerCall(producer string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeError
	}
	m.ProducerCallsTotal.WithLabelValues(producer, outcome).Inc()
	m.ProducerLatencySeconds.WithLabelValues(producer).Observe(seconds)
}

// RecordFallback records a default substitution for a failed producer.
func (m *EngineMetrics) RecordFallback(producer string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(producer).Inc()
}

// RecordEnrichment records a narrative enrichment attempt.
func (m *EngineMetrics) RecordEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentTotal.WithLabelValues(outcome).Inc()
}

// RecordRiskLevel records the tier of a returned assessment.
func (m *EngineMetrics) RecordRiskLevel(level string) {
	if m == nil {
		return
	}
	m.RiskLevelTotal.WithLabelValues(level).Inc()
}
