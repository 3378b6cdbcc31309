// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// unreachableProducers points every producer at a closed port so each call
// fails fast and the pipeline falls back to defaults.
func unreachableProducers() signals.Config {
	return signals.Config{
		EmotionURL:  "http://localhost:9",
		IntentURL:   "http://localhost:9",
		TruthURL:    "http://localhost:9",
		PatternURL:  "http://localhost:9",
		TemporalURL: "http://localhost:9",
		Timeout:     200 * time.Millisecond,
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	result := applyConfigDefaults(Config{})

	assert.Equal(t, 8090, result.Port, "default port should be 8090")
	assert.Equal(t, "http", result.NarrativeBackend, "default narrative backend should be http")
	assert.Equal(t, "harmlens-otel-collector:4317", result.OTelEndpoint)
	assert.Equal(t, 0, result.RateLimitBurst, "no burst when limiting is disabled")
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := Config{
		Port:             8080,
		NarrativeBackend: "template",
		OTelEndpoint:     "custom-collector:4317",
	}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 8080, result.Port)
	assert.Equal(t, "template", result.NarrativeBackend)
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint)
}

func TestApplyConfigDefaults_BurstWhenLimiting(t *testing.T) {
	result := applyConfigDefaults(Config{RateLimitRPS: 5})
	assert.Equal(t, 10, result.RateLimitBurst, "burst defaults to 10 when limiting is on")
}

func TestApplyConfigDefaults_ResolvesProducerURLs(t *testing.T) {
	t.Setenv("HARMLENS_EMOTION_URL", "")
	t.Setenv("HARMLENS_TEMPORAL_URL", "")

	result := applyConfigDefaults(Config{})

	assert.Equal(t, "http://emotion-service:8001", result.Producers.EmotionURL,
		"empty producer URLs resolve to the compose-network defaults")
	assert.Equal(t, "http://temporal-service:8006", result.Producers.TemporalURL)
}

// =============================================================================
// End-to-End Tests
// =============================================================================

// TestEngine_DegradedAssessment boots the full service with every producer
// unreachable and asserts a complete all-defaults assessment still comes
// back over HTTP.
func TestEngine_DegradedAssessment(t *testing.T) {
	svc, err := New(Config{
		Producers:        unreachableProducers(),
		NarrativeBackend: "disabled",
		GinMode:          gin.TestMode,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assess",
		strings.NewReader(`{"text": "the grid is failing tonight"}`))
	req.Header.Set("Content-Type", "application/json")
	svc.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var got datatypes.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	// All-defaults composite.
	assert.Equal(t, 21, got.HarmIndex)
	assert.Equal(t, datatypes.RiskLow, got.RiskLevel)
	assert.Equal(t, 15, got.Uncertainty)
	assert.NotEmpty(t, got.PredictedOutcomes)
	assert.Nil(t, got.AIExplanation)
}

func TestEngine_TemplateEnrichment(t *testing.T) {
	svc, err := New(Config{
		Producers:        unreachableProducers(),
		NarrativeBackend: "template",
		GinMode:          gin.TestMode,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assess",
		strings.NewReader(`{"text": "a perfectly ordinary statement"}`))
	req.Header.Set("Content-Type", "application/json")
	svc.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got datatypes.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.AIExplanation)
	assert.NotEmpty(t, got.AIExplanation.Explanation)
	assert.NotEmpty(t, got.AIExplanation.Insights)
	assert.NotEmpty(t, got.AIExplanation.Recommendations)
}

func TestEngine_HealthRoute(t *testing.T) {
	svc, err := New(Config{
		Producers:        unreachableProducers(),
		NarrativeBackend: "disabled",
		GinMode:          gin.TestMode,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEngine_MetricsRoute(t *testing.T) {
	svc, err := New(Config{
		Producers:        unreachableProducers(),
		NarrativeBackend: "disabled",
		EnableMetrics:    true,
		GinMode:          gin.TestMode,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
