// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package signals

import (
	"fmt"
	"strings"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// Rule thresholds for insight generation.
const (
	insightEmotionThreshold    = 0.6
	insightDogWhistleThreshold = 0.5
	insightSimilarityThreshold = 0.7
)

// RuleInsights derives key findings from the fused assessment. Deterministic
// and independent of any enrichment backend.
func RuleInsights(req ExplainRequest) []string {
	var insights []string

	if req.Emotion.Anger > insightEmotionThreshold || req.Emotion.Fear > insightEmotionThreshold {
		insights = append(insights, "High emotional intensity detected, which increases virality potential")
	}
	if req.Intent.HasExplicitCTA {
		insights = append(insights, "Contains an urgent call-to-action that may drive rapid spread")
	}
	if req.Intent.DogWhistleProbability > insightDogWhistleThreshold {
		insights = append(insights, "Coded language detected that may target specific audiences")
	}
	if req.Truth.SimilarityToFalseNarratives > insightSimilarityThreshold {
		insights = append(insights, "Strong match to known misinformation patterns")
	}
	if req.Truth.ContradictorySources {
		insights = append(insights, "Contradicted by verified fact-checking sources")
	}
	if req.RiskLevel == datatypes.RiskHigh {
		insights = append(insights, "Potential for real-world behavioral impact")
	}

	if len(insights) == 0 {
		insights = append(insights, "No significant risk indicators detected")
	}
	return insights
}

// RuleRecommendations maps the risk tier to recommended handling actions.
func RuleRecommendations(req ExplainRequest) []string {
	switch req.RiskLevel {
	case datatypes.RiskHigh:
		return []string{
			"Flag for immediate review by content moderators",
			"Consider adding fact-check labels or warnings",
			"Monitor spread patterns closely",
		}
	case datatypes.RiskMedium:
		return []string{
			"Monitor for increased spread or engagement",
			"Cross-reference with fact-checking databases",
			"Track related claims from the same source",
		}
	default:
		return []string{
			"Continue routine monitoring",
			"No immediate action required",
		}
	}
}

// TemplateExplanation renders a deterministic explanation paragraph from the
// fused signals.
func TemplateExplanation(req ExplainRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "This statement received a harm index of %d, placing it in the %s risk tier.",
		req.HarmIndex, strings.ToLower(string(req.RiskLevel)))

	dominant := dominantEmotion(req.Emotion)
	if dominant != "neutral" {
		fmt.Fprintf(&b, " The dominant emotional signal is %s, which shapes how the statement is likely to be received and shared.", dominant)
	} else {
		b.WriteString(" The emotional profile is largely neutral.")
	}

	fmt.Fprintf(&b, " The statement's intent was classified as %s", strings.ToLower(string(req.Intent.Type)))
	if req.Intent.HasExplicitCTA {
		b.WriteString(" with an explicit call-to-action")
	} else if req.Intent.HasImplicitCTA {
		b.WriteString(" with an implied call-to-action")
	}
	b.WriteString(".")

	similarity := int(req.Truth.SimilarityToFalseNarratives * 100)
	if similarity > 0 {
		fmt.Fprintf(&b, " It shows %d%% similarity to known false narratives.", similarity)
	}
	if req.Truth.ContradictorySources {
		b.WriteString(" Verified sources contradict the claim.")
	}

	return b.String()
}

// dominantEmotion returns the name of the strongest emotion score.
func dominantEmotion(e datatypes.EmotionSignal) string {
	name, best := "neutral", e.Neutral
	for _, cand := range []struct {
		name  string
		score float64
	}{
		{"anger", e.Anger},
		{"fear", e.Fear},
		{"joy", e.Joy},
		{"sadness", e.Sadness},
	} {
		if cand.score > best {
			name, best = cand.name, cand.score
		}
	}
	return name
}
