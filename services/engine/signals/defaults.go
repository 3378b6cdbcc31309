// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package signals

import (
	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// Fallback defaults, substituted whenever a producer call fails.
//
// The values are deliberately innocuous so that unreachable producers bias
// the engine toward under-flagging: a degraded deployment must report
// "insufficient evidence", never "high harm". The one asymmetry is the
// truth confidence, which defaults to Low so that degradation widens the
// uncertainty band instead of hiding it.
//
// Constructors return fresh values so callers can never share or mutate a
// package-level slice.

// DefaultEmotion returns the mostly-neutral emotion fallback.
func DefaultEmotion() datatypes.EmotionSignal {
	return datatypes.EmotionSignal{
		Anger:   0.1,
		Fear:    0.1,
		Joy:     0.2,
		Sadness: 0.1,
		Neutral: 0.5,
	}
}

// DefaultIntent returns the informational, CTA-free intent fallback.
func DefaultIntent() datatypes.IntentSignal {
	return datatypes.IntentSignal{
		Type:                  datatypes.IntentInformational,
		HasExplicitCTA:        false,
		HasImplicitCTA:        false,
		DogWhistleProbability: 0,
	}
}

// DefaultTruth returns the low-similarity, low-confidence truth fallback.
func DefaultTruth() datatypes.TruthSignal {
	return datatypes.TruthSignal{
		SimilarityToFalseNarratives: 0.2,
		EvidenceConfidence:          datatypes.ConfidenceLow,
		ContradictorySources:        false,
		SimilarClaims:               []string{},
	}
}

// DefaultPattern returns the zero-harm pattern fallback. Its harm score of 0
// contributes nothing to the composite.
func DefaultPattern() datatypes.PatternSignal {
	return datatypes.PatternSignal{
		HarmScore:  0,
		Confidence: 0,
		Patterns:   []datatypes.PatternCategory{},
	}
}

// DefaultTemporal returns the empty temporal fallback.
func DefaultTemporal() datatypes.TemporalSignal {
	return datatypes.TemporalSignal{
		DetectedCategories: []string{},
		Trends:             []datatypes.TrendData{},
		HistoricalContext:  "No historical trend data available.",
		RiskForecast:       "",
		SimilarIncidents:   []datatypes.Incident{},
	}
}
