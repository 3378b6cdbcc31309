// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fusion

import (
	"strings"
	"testing"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

func TestComposeNarrative_EmptyWhenNoThresholdMet(t *testing.T) {
	got := ComposeNarrative(
		datatypes.EmotionSignal{Neutral: 0.9},
		datatypes.IntentSignal{Type: datatypes.IntentInformational},
		datatypes.TruthSignal{SimilarityToFalseNarratives: 0.2, EvidenceConfidence: datatypes.ConfidenceHigh},
	)
	if got != "" {
		t.Errorf("expected empty narrative, got %q", got)
	}
}

func TestComposeNarrative_ClauseSelection(t *testing.T) {
	tests := []struct {
		name    string
		emotion datatypes.EmotionSignal
		intent  datatypes.IntentSignal
		truth   datatypes.TruthSignal
		want    []string
	}{
		{
			name:    "high emotion wins over moderate",
			emotion: datatypes.EmotionSignal{Anger: 0.7},
			want:    []string{clauseEmotionHigh},
		},
		{
			name:    "moderate fear alone",
			emotion: datatypes.EmotionSignal{Fear: 0.4},
			want:    []string{clauseEmotionModerate},
		},
		{
			name:   "explicit CTA suppresses implicit clause",
			intent: datatypes.IntentSignal{HasExplicitCTA: true, HasImplicitCTA: true},
			want:   []string{clauseExplicitCTA},
		},
		{
			name:   "implicit CTA alone",
			intent: datatypes.IntentSignal{HasImplicitCTA: true},
			want:   []string{clauseImplicitCTA},
		},
		{
			name:   "dog whistle",
			intent: datatypes.IntentSignal{DogWhistleProbability: 0.7},
			want:   []string{clauseDogWhistle},
		},
		{
			name:  "close similarity wins over partial",
			truth: datatypes.TruthSignal{SimilarityToFalseNarratives: 0.8},
			want:  []string{clauseSimilarityHigh},
		},
		{
			name:  "partial similarity alone",
			truth: datatypes.TruthSignal{SimilarityToFalseNarratives: 0.5},
			want:  []string{clauseSimilarityLow},
		},
		{
			name:  "contradiction",
			truth: datatypes.TruthSignal{ContradictorySources: true},
			want:  []string{clauseContradicted},
		},
		{
			name:    "all gates fire in fixed order",
			emotion: datatypes.EmotionSignal{Fear: 0.9},
			intent:  datatypes.IntentSignal{HasExplicitCTA: true, DogWhistleProbability: 0.8},
			truth:   datatypes.TruthSignal{SimilarityToFalseNarratives: 0.9, ContradictorySources: true},
			want: []string{
				clauseEmotionHigh,
				clauseExplicitCTA,
				clauseDogWhistle,
				clauseSimilarityHigh,
				clauseContradicted,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeNarrative(tt.emotion, tt.intent, tt.truth)
			want := strings.Join(tt.want, narrativeSeparator)
			if got != want {
				t.Errorf("ComposeNarrative() = %q, want %q", got, want)
			}
		})
	}
}

func TestComposeNarrative_NoDuplicateClauses(t *testing.T) {
	// Both anger and fear above the high threshold must still emit the
	// emotion clause exactly once.
	got := ComposeNarrative(
		datatypes.EmotionSignal{Anger: 0.9, Fear: 0.9},
		datatypes.IntentSignal{},
		datatypes.TruthSignal{},
	)
	if n := strings.Count(got, clauseEmotionHigh); n != 1 {
		t.Errorf("emotion clause emitted %d times, want 1", n)
	}
}
