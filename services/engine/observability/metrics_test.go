// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import "testing"

// TestNilMetricsSafe verifies the nil-receiver contract: callers never
// guard their recording calls, so every helper must tolerate a nil receiver
// when metrics are disabled.
func TestNilMetricsSafe(t *testing.T) {
	var m *EngineMetrics

	m.RecordAssessment(StatusSuccess, 0.1)
	m.RecordProducerCall("emotion", true, 0.05)
	m.RecordFallback("truth")
	m.RecordEnrichment(OutcomeOK)
	m.RecordRiskLevel("Low")
}

// TestInitMetricsIdempotent verifies repeated initialization returns the
// same registered instance instead of panicking on duplicate registration.
func TestInitMetricsIdempotent(t *testing.T) {
	first := InitMetrics()
	if first == nil {
		t.Fatal("InitMetrics returned nil")
	}

	second := InitMetrics()
	if first != second {
		t.Error("InitMetrics returned a different instance on second call")
	}
}

func TestMetricsRecording(t *testing.T) {
	m := InitMetrics()

	// Exercise every helper against live collectors; promauto panics on
	// label cardinality mistakes, so reaching the end is the assertion.
	m.RecordAssessment(StatusSuccess, 0.25)
	m.RecordAssessment(StatusInvalidInput, 0.01)
	m.RecordAssessment(StatusError, 0.5)
	m.RecordProducerCall("emotion", true, 0.05)
	m.RecordProducerCall("pattern", false, 5.0)
	m.RecordFallback("pattern")
	m.RecordEnrichment(OutcomeOK)
	m.RecordEnrichment(OutcomeError)
	m.RecordEnrichment(OutcomeDisabled)
	m.RecordRiskLevel("High")
}
