// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fusion implements the deterministic scoring layer of the engine:
// the weighted harm-index formula, the rule-based outcome predictor, and the
// narrative composer. Everything in this package is pure and does no I/O.
//
// The formula is intentionally a transparent weighted sum rather than a
// learned model, so that any published harm index can be audited by hand.
// All constants live in Config; an instance with different values is a
// different, incompatible scoring contract.
package fusion

import (
	"math"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// =============================================================================
// Configuration
// =============================================================================

// Weights are the five multipliers applied to the normalized risk terms.
// They sum to 100 only when every term is <=1; the emotion volatility term
// is not hard-capped, so the composite can exceed 100 (see Fuse).
type Weights struct {
	EmotionVolatility float64
	IntentRisk        float64
	HistoricalHarm    float64
	TruthUncertainty  float64
	PatternHarm       float64
}

// Config collects every constant of the scoring formula in one place.
//
// # Description
//
// Keeping the lookup tables and coefficients in a single structure (instead
// of scattered literals) keeps the formula auditable and lets tests exercise
// the calculator against the published contract values from DefaultConfig.
//
// # Fields
//
//   - Weights: term multipliers for the composite sum.
//   - AngerCoefficient, FearCoefficient: emotion volatility multipliers.
//   - IntentBaseRisk: base risk per intent label.
//   - ExplicitCTABonus, ImplicitCTABonus: call-to-action additives; explicit
//     wins when both flags are set.
//   - DogWhistleFactor: multiplier on the coded-language probability.
//   - ConfidenceUncertainty: uncertainty per evidence-confidence label.
//   - ContradictionPenalty: added to uncertainty when verified sources
//     contradict the statement; the sum is capped at 1.
//   - LowTierMax, MediumTierMax: inclusive upper bounds of the Low and
//     Medium risk tiers.
//   - UncertaintyBase, UncertaintySlope: the uncertainty band is
//     base + round(volatility*slope + truthUncertainty*slope).
type Config struct {
	Weights Weights

	AngerCoefficient float64
	FearCoefficient  float64

	IntentBaseRisk   map[datatypes.IntentType]float64
	ExplicitCTABonus float64
	ImplicitCTABonus float64
	DogWhistleFactor float64

	ConfidenceUncertainty map[datatypes.EvidenceConfidence]float64
	ContradictionPenalty  float64

	LowTierMax    int
	MediumTierMax int

	UncertaintyBase  float64
	UncertaintySlope float64
}

// DefaultConfig returns the published scoring contract. Implementations that
// interoperate must reproduce these values exactly.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			EmotionVolatility: 20,
			IntentRisk:        25,
			HistoricalHarm:    20,
			TruthUncertainty:  15,
			PatternHarm:       20,
		},
		AngerCoefficient: 1.2,
		FearCoefficient:  1.1,
		IntentBaseRisk: map[datatypes.IntentType]float64{
			datatypes.IntentInformational:  0.10,
			datatypes.IntentPersuasive:     0.40,
			datatypes.IntentActionOriented: 0.60,
			datatypes.IntentAlarmist:       0.75,
			datatypes.IntentInciting:       0.90,
		},
		ExplicitCTABonus: 0.15,
		ImplicitCTABonus: 0.10,
		DogWhistleFactor: 0.20,
		ConfidenceUncertainty: map[datatypes.EvidenceConfidence]float64{
			datatypes.ConfidenceHigh:   0.10,
			datatypes.ConfidenceMedium: 0.50,
			datatypes.ConfidenceLow:    0.80,
		},
		ContradictionPenalty: 0.15,
		LowTierMax:           30,
		MediumTierMax:        60,
		UncertaintyBase:      10,
		UncertaintySlope:     5,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the fused Assessment core.
type Result struct {
	// HarmIndex is the composite score, nominally [0,100] but unclamped.
	HarmIndex int

	// RiskLevel is the tier derived from HarmIndex.
	RiskLevel datatypes.RiskLevel

	// Uncertainty is the integer percentage band, no upper clamp.
	Uncertainty int
}

// =============================================================================
// Calculator
// =============================================================================

// Fuse computes the composite harm index, risk tier and uncertainty band
// from the three mandatory signals plus the pattern harm probability
// (0 when the pattern producer was unavailable).
//
// Pure and deterministic: identical inputs always produce an identical
// Result regardless of call order or timing.
//
// The composite is NOT clamped to [0,100]. The weights sum to 100 only under
// clamped inputs, and extreme anger/fear magnitudes can push emotion
// volatility above 1. The reference behavior accepts the overshoot rather
// than hiding it; callers that need a hard ceiling must apply it themselves.
func (c Config) Fuse(
	emotion datatypes.EmotionSignal,
	intent datatypes.IntentSignal,
	truth datatypes.TruthSignal,
	patternHarm float64,
) Result {
	vol := c.emotionVolatility(emotion)
	intentRisk := c.intentRisk(intent)
	historicalHarm := truth.SimilarityToFalseNarratives
	truthUncertainty := c.truthUncertainty(truth)

	score := int(math.Round(
		vol*c.Weights.EmotionVolatility +
			intentRisk*c.Weights.IntentRisk +
			historicalHarm*c.Weights.HistoricalHarm +
			truthUncertainty*c.Weights.TruthUncertainty +
			patternHarm*c.Weights.PatternHarm))

	uncertainty := int(c.UncertaintyBase +
		math.Round(vol*c.UncertaintySlope+truthUncertainty*c.UncertaintySlope))

	return Result{
		HarmIndex:   score,
		RiskLevel:   c.riskLevel(score),
		Uncertainty: uncertainty,
	}
}

// emotionVolatility weights anger and fear, the two spread-driving emotions.
// Not capped at 1 on purpose.
func (c Config) emotionVolatility(e datatypes.EmotionSignal) float64 {
	return (e.Anger*c.AngerCoefficient + e.Fear*c.FearCoefficient) / 2
}

// intentRisk combines the base label risk with call-to-action and
// coded-language additives, capped at 1.
func (c Config) intentRisk(i datatypes.IntentSignal) float64 {
	base, ok := c.IntentBaseRisk[i.Type]
	if !ok {
		// Unknown label from a misbehaving producer: score as the most
		// innocuous class rather than guessing upward.
		base = c.IntentBaseRisk[datatypes.IntentInformational]
	}

	bonus := 0.0
	switch {
	case i.HasExplicitCTA:
		bonus = c.ExplicitCTABonus
	case i.HasImplicitCTA:
		bonus = c.ImplicitCTABonus
	}

	return math.Min(1, base+bonus+i.DogWhistleProbability*c.DogWhistleFactor)
}

// truthUncertainty maps evidence confidence to an uncertainty value, adding
// the contradiction penalty capped at 1. Unknown confidence labels are
// treated as Low: evidence we cannot classify is evidence we cannot trust.
func (c Config) truthUncertainty(t datatypes.TruthSignal) float64 {
	u, ok := c.ConfidenceUncertainty[t.EvidenceConfidence]
	if !ok {
		u = c.ConfidenceUncertainty[datatypes.ConfidenceLow]
	}
	if t.ContradictorySources {
		u = math.Min(1, u+c.ContradictionPenalty)
	}
	return u
}

// riskLevel buckets a composite score into the three tiers.
func (c Config) riskLevel(score int) datatypes.RiskLevel {
	switch {
	case score <= c.LowTierMax:
		return datatypes.RiskLow
	case score <= c.MediumTierMax:
		return datatypes.RiskMedium
	default:
		return datatypes.RiskHigh
	}
}
