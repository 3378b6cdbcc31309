// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fusion

import (
	"strings"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// narrativeSeparator joins the emitted clauses.
const narrativeSeparator = " • "

// Clause thresholds for ComposeNarrative.
const (
	emotionHighThreshold     = 0.6
	emotionModerateThreshold = 0.3
	dogWhistleThreshold      = 0.6
	similarityHighThreshold  = 0.7
	similarityLowThreshold   = 0.4
)

// Narrative clause templates. Each clause is a complete sentence; clauses
// are emitted at most once each, in declaration order.
const (
	clauseEmotionHigh     = "The language is intensely emotionally charged, heightening its psychological impact and spread potential."
	clauseEmotionModerate = "The language carries a moderate emotional charge."
	clauseExplicitCTA     = "It contains an explicit call to action urging readers to act or share immediately."
	clauseImplicitCTA     = "It contains implicit prompts nudging readers toward action."
	clauseDogWhistle      = "Coded language patterns suggest it may be targeting a specific audience."
	clauseSimilarityHigh  = "The claim closely matches known false narratives."
	clauseSimilarityLow   = "The claim partially resembles previously debunked material."
	clauseContradicted    = "Verified sources contradict or do not support this claim."
)

// ComposeNarrative builds the deterministic bullet-joined narrative from the
// three mandatory signals.
//
// Each clause is gated by a threshold on the same signals the calculator
// scores: emotional intensity tier, call-to-action presence, coded-language
// probability, similarity tier, and the contradictory-sources flag. A signal
// below its threshold contributes nothing; when no threshold is met the
// narrative is empty. Within a gate pair (high/moderate, explicit/implicit,
// close/partial) only the stronger clause is emitted.
func ComposeNarrative(
	emotion datatypes.EmotionSignal,
	intent datatypes.IntentSignal,
	truth datatypes.TruthSignal,
) string {
	var clauses []string

	switch {
	case emotion.Anger > emotionHighThreshold || emotion.Fear > emotionHighThreshold:
		clauses = append(clauses, clauseEmotionHigh)
	case emotion.Anger > emotionModerateThreshold || emotion.Fear > emotionModerateThreshold:
		clauses = append(clauses, clauseEmotionModerate)
	}

	switch {
	case intent.HasExplicitCTA:
		clauses = append(clauses, clauseExplicitCTA)
	case intent.HasImplicitCTA:
		clauses = append(clauses, clauseImplicitCTA)
	}

	if intent.DogWhistleProbability > dogWhistleThreshold {
		clauses = append(clauses, clauseDogWhistle)
	}

	switch {
	case truth.SimilarityToFalseNarratives > similarityHighThreshold:
		clauses = append(clauses, clauseSimilarityHigh)
	case truth.SimilarityToFalseNarratives > similarityLowThreshold:
		clauses = append(clauses, clauseSimilarityLow)
	}

	if truth.ContradictorySources {
		clauses = append(clauses, clauseContradicted)
	}

	return strings.Join(clauses, narrativeSeparator)
}
