// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the assessment engine.
//
// This file contains the signal types returned by the five analysis
// producers plus the LLM enrichment payload. JSON tags match the wire
// format of the producer services exactly; do not rename them without
// coordinating a producer release.
package datatypes

// =============================================================================
// Categorical Labels
// =============================================================================

// IntentType is the closed set of intent classifications emitted by the
// intent producer.
type IntentType string

const (
	IntentInformational  IntentType = "Informational"
	IntentPersuasive     IntentType = "Persuasive"
	IntentActionOriented IntentType = "Action-oriented"
	IntentAlarmist       IntentType = "Alarmist"
	IntentInciting       IntentType = "Inciting"
)

// EvidenceConfidence is the truth producer's qualitative confidence in its
// own similarity evidence.
type EvidenceConfidence string

const (
	ConfidenceHigh   EvidenceConfidence = "High"
	ConfidenceMedium EvidenceConfidence = "Medium"
	ConfidenceLow    EvidenceConfidence = "Low"
)

// RiskLevel buckets the composite harm index into exactly three tiers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// OutcomeProbability is the qualitative likelihood attached to a predicted
// outcome.
type OutcomeProbability string

const (
	ProbabilityHigh   OutcomeProbability = "High"
	ProbabilityMedium OutcomeProbability = "Medium"
	ProbabilityLow    OutcomeProbability = "Low"
)

// =============================================================================
// Producer Signals
// =============================================================================

// EmotionSignal holds the five emotion magnitudes from the emotion producer.
//
// Each value is independently in [0,1]; there is no invariant that they sum
// to 1 (the producer normalizes only when its model is loaded).
type EmotionSignal struct {
	Anger   float64 `json:"anger"`
	Fear    float64 `json:"fear"`
	Joy     float64 `json:"joy"`
	Sadness float64 `json:"sadness"`
	Neutral float64 `json:"neutral"`
}

// IntentSignal holds the intent classification from the intent producer.
type IntentSignal struct {
	// Type is one of the IntentType constants. Unknown labels from a
	// misbehaving producer are tolerated downstream and scored as
	// Informational.
	Type IntentType `json:"type"`

	// HasExplicitCTA reports an explicit call-to-action ("share this now",
	// "boycott", ...).
	HasExplicitCTA bool `json:"hasExplicitCTA"`

	// HasImplicitCTA reports softer prompts ("you should", "wake up", ...).
	HasImplicitCTA bool `json:"hasImplicitCTA"`

	// DogWhistleProbability is the coded-language likelihood in [0,1].
	DogWhistleProbability float64 `json:"dogWhistleProbability"`
}

// TruthSignal holds the truth-verification result from the RAG producer.
type TruthSignal struct {
	// SimilarityToFalseNarratives is the peak similarity in [0,1] against
	// the known-false-narrative corpus.
	SimilarityToFalseNarratives float64 `json:"similarityToFalseNarratives"`

	// EvidenceConfidence is the producer's confidence in that evidence.
	EvidenceConfidence EvidenceConfidence `json:"evidenceConfidence"`

	// ContradictorySources is true when verified sources contradict the
	// statement.
	ContradictorySources bool `json:"contradictorySources"`

	// SimilarClaims lists the matched corpus claims, most similar first.
	// May be empty.
	SimilarClaims []string `json:"similarClaims"`
}

// PatternCategory is one detected harm-pattern bucket from the CNN-BERT
// producer, with the keywords that matched.
type PatternCategory struct {
	Category string   `json:"category"`
	Matches  []string `json:"matches"`
	Score    float64  `json:"score"`
}

// PatternSignal holds the deep-pattern harm prediction from the CNN-BERT
// producer. The producer speaks snake_case.
type PatternSignal struct {
	HarmScore  float64           `json:"harm_score"`
	Confidence float64           `json:"confidence"`
	Patterns   []PatternCategory `json:"cnn_patterns"`
}

// TrendData describes recent activity for one misinformation category.
type TrendData struct {
	Category       string  `json:"category"`
	CurrentLevel   float64 `json:"current_level"`
	TrendDirection string  `json:"trend_direction"` // "increasing", "decreasing", "stable"
	Volatility     float64 `json:"volatility"`
	RecentSpike    bool    `json:"recent_spike"`
}

// Incident is one similar historical incident surfaced by the temporal
// producer.
type Incident struct {
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Outcome     string `json:"outcome"`
}

// TemporalSignal holds the time-series context from the temporal producer.
type TemporalSignal struct {
	DetectedCategories []string    `json:"detected_categories"`
	Trends             []TrendData `json:"trends"`
	HistoricalContext  string      `json:"historical_context"`
	RiskForecast       string      `json:"risk_forecast"`
	SimilarIncidents   []Incident  `json:"similar_incidents"`
}

// NarrativeSignal holds the free-form LLM enrichment. It is the only signal
// with no fallback default: when the enrichment call fails the Assessment
// simply omits it.
type NarrativeSignal struct {
	Explanation     string   `json:"explanation"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}
