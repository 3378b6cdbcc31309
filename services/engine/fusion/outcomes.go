// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fusion

import (
	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// Outcome labels emitted by PredictOutcomes, in emission order.
const (
	OutcomePanicAnxiety     = "panic/anxiety"
	OutcomeSocialUnrest     = "social unrest/confrontation"
	OutcomeRapidSpread      = "rapid misinformation spread"
	OutcomeUnverifiedAction = "unverified action taken"
	OutcomeLimitedImpact    = "limited behavioral impact"
)

// Thresholds for the outcome rules.
const (
	fearOutcomeThreshold  = 0.6
	angerOutcomeThreshold = 0.6

	// Composite-score cutoffs that promote an outcome to High probability.
	panicHighScoreCutoff  = 60
	unrestHighScoreCutoff = 70
)

// PredictOutcomes derives the ranked qualitative outcome predictions from
// the composite score, the intent category and the emotion magnitudes.
//
// Rules are independent and additive; more than one may fire, and emission
// follows the fixed precedence below. The result is never empty: when no
// rule fires, a single "limited behavioral impact" entry is returned.
//
//  1. fear > 0.6  -> panic/anxiety (High when score > 60, else Medium)
//  2. anger > 0.6 -> social unrest/confrontation (High when score > 70, else Medium)
//  3. intent Alarmist or Inciting -> rapid misinformation spread (High)
//  4. intent Action-oriented -> unverified action taken (Medium)
func PredictOutcomes(
	harmIndex int,
	intent datatypes.IntentSignal,
	emotion datatypes.EmotionSignal,
) []datatypes.OutcomePrediction {
	var outcomes []datatypes.OutcomePrediction

	if emotion.Fear > fearOutcomeThreshold {
		p := datatypes.ProbabilityMedium
		if harmIndex > panicHighScoreCutoff {
			p = datatypes.ProbabilityHigh
		}
		outcomes = append(outcomes, datatypes.OutcomePrediction{
			Outcome:     OutcomePanicAnxiety,
			Probability: p,
		})
	}

	if emotion.Anger > angerOutcomeThreshold {
		p := datatypes.ProbabilityMedium
		if harmIndex > unrestHighScoreCutoff {
			p = datatypes.ProbabilityHigh
		}
		outcomes = append(outcomes, datatypes.OutcomePrediction{
			Outcome:     OutcomeSocialUnrest,
			Probability: p,
		})
	}

	if intent.Type == datatypes.IntentAlarmist || intent.Type == datatypes.IntentInciting {
		outcomes = append(outcomes, datatypes.OutcomePrediction{
			Outcome:     OutcomeRapidSpread,
			Probability: datatypes.ProbabilityHigh,
		})
	}

	if intent.Type == datatypes.IntentActionOriented {
		outcomes = append(outcomes, datatypes.OutcomePrediction{
			Outcome:     OutcomeUnverifiedAction,
			Probability: datatypes.ProbabilityMedium,
		})
	}

	if len(outcomes) == 0 {
		outcomes = append(outcomes, datatypes.OutcomePrediction{
			Outcome:     OutcomeLimitedImpact,
			Probability: datatypes.ProbabilityLow,
		})
	}

	return outcomes
}
