// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

func highRiskExplainRequest() ExplainRequest {
	return ExplainRequest{
		Text:      "Share this now before they delete it!",
		HarmIndex: 83,
		RiskLevel: datatypes.RiskHigh,
		Emotion:   datatypes.EmotionSignal{Anger: 0.75, Fear: 0.7, Neutral: 0.05},
		Intent:    datatypes.IntentSignal{Type: datatypes.IntentInciting, HasExplicitCTA: true, DogWhistleProbability: 0.6},
		Truth: datatypes.TruthSignal{
			SimilarityToFalseNarratives: 0.85,
			EvidenceConfidence:          datatypes.ConfidenceLow,
			ContradictorySources:        true,
		},
	}
}

func TestNewNarrativeClient(t *testing.T) {
	t.Run("disabled returns nil client and nil error", func(t *testing.T) {
		client, err := NewNarrativeClient(NarrativeConfig{Backend: "disabled"})
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("template backend", func(t *testing.T) {
		client, err := NewNarrativeClient(NarrativeConfig{Backend: "template"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("unknown backend is an error", func(t *testing.T) {
		_, err := NewNarrativeClient(NarrativeConfig{Backend: "psychic"})
		assert.Error(t, err)
	})

	t.Run("default is http", func(t *testing.T) {
		client, err := NewNarrativeClient(NarrativeConfig{URL: "http://localhost:9"})
		require.NoError(t, err)
		_, ok := client.(*httpNarrator)
		assert.True(t, ok)
	})
}

func TestHTTPNarratorWireFormat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/explain", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"explanation": "This statement is inflammatory.",
			"insights": ["matches a known hoax"],
			"recommendations": ["flag for review"]
		}`))
	}))
	defer srv.Close()

	client, err := NewNarrativeClient(NarrativeConfig{Backend: "http", URL: srv.URL})
	require.NoError(t, err)

	got, err := client.Explain(context.Background(), highRiskExplainRequest())
	require.NoError(t, err)

	assert.Equal(t, "This statement is inflammatory.", got.Explanation)
	assert.Equal(t, []string{"matches a known hoax"}, got.Insights)
	assert.Equal(t, []string{"flag for review"}, got.Recommendations)

	// The request body carries the fused core under the documented keys.
	assert.Equal(t, "Share this now before they delete it!", captured["text"])
	assert.Equal(t, float64(83), captured["harmIndex"])
	assert.Equal(t, "High", captured["riskLevel"])
	assert.Contains(t, captured, "emotionScores")
	assert.Contains(t, captured, "intentAnalysis")
	assert.Contains(t, captured, "truthVerification")
}

func TestHTTPNarratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "llm unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewNarrativeClient(NarrativeConfig{Backend: "http", URL: srv.URL})
	require.NoError(t, err)

	_, err = client.Explain(context.Background(), highRiskExplainRequest())
	assert.Error(t, err)
}

func TestTemplateNarratorDeterministic(t *testing.T) {
	client := &templateNarrator{}
	req := highRiskExplainRequest()

	first, err := client.Explain(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Explain(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Explanation)
	assert.NotEmpty(t, first.Insights)
	assert.NotEmpty(t, first.Recommendations)
	assert.True(t, strings.Contains(first.Explanation, "83"))
}

func TestRuleInsights(t *testing.T) {
	t.Run("high risk request fires every rule", func(t *testing.T) {
		got := RuleInsights(highRiskExplainRequest())
		assert.Len(t, got, 6)
	})

	t.Run("benign request gets the no-indicator insight", func(t *testing.T) {
		got := RuleInsights(ExplainRequest{
			RiskLevel: datatypes.RiskLow,
			Emotion:   datatypes.EmotionSignal{Neutral: 0.9},
			Intent:    datatypes.IntentSignal{Type: datatypes.IntentInformational},
			Truth:     datatypes.TruthSignal{EvidenceConfidence: datatypes.ConfidenceHigh},
		})
		assert.Equal(t, []string{"No significant risk indicators detected"}, got)
	})
}

func TestRuleRecommendationsPerTier(t *testing.T) {
	high := RuleRecommendations(ExplainRequest{RiskLevel: datatypes.RiskHigh})
	medium := RuleRecommendations(ExplainRequest{RiskLevel: datatypes.RiskMedium})
	low := RuleRecommendations(ExplainRequest{RiskLevel: datatypes.RiskLow})

	assert.Len(t, high, 3)
	assert.Len(t, medium, 3)
	assert.Len(t, low, 2)
	assert.NotEqual(t, high, medium)
}

func TestDominantEmotion(t *testing.T) {
	tests := []struct {
		name    string
		emotion datatypes.EmotionSignal
		want    string
	}{
		{"neutral by default", datatypes.EmotionSignal{}, "neutral"},
		{"fear dominates", datatypes.EmotionSignal{Fear: 0.8, Anger: 0.3, Neutral: 0.1}, "fear"},
		{"anger beats equal neutral", datatypes.EmotionSignal{Anger: 0.5, Neutral: 0.4}, "anger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dominantEmotion(tt.emotion))
		})
	}
}
