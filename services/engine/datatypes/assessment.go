// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the inbound request type and the Assessment aggregate
// returned by POST /v1/assess. For the producer signal types, see signals.go.
package datatypes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Input Bounds
// =============================================================================

const (
	// MaxStatementBytes is the maximum size of a statement submitted for
	// assessment. Checked in bytes (not runes) to bound memory per request.
	MaxStatementBytes = 16 * 1024 // 16KB
)

// ErrInvalidInput is the single request-level error class. Everything else
// that can go wrong during an assessment is absorbed into fallback defaults.
var ErrInvalidInput = errors.New("invalid input")

// =============================================================================
// Shared Validator Instance
// =============================================================================

// assessValidate is the validator instance for assessment datatypes.
// Initialized in init() with custom validators.
var assessValidate *validator.Validate

func init() {
	assessValidate = validator.New()
	_ = assessValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces the MaxStatementBytes bound on a string field.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxStatementBytes
}

// =============================================================================
// Request
// =============================================================================

// AssessRequest is the body of POST /v1/assess.
//
// # Fields
//
//   - Text: Required. The statement to assess. Must be non-blank after
//     trimming and at most 16KB.
//
// # Validation
//
// Uses go-playground/validator:
//   - Text: required, max 16384 bytes via the custom "maxbytes" validator
//   - Blank-after-trim text is additionally rejected by Validate(), since
//     the pipeline has nothing to analyze in a whitespace-only statement
type AssessRequest struct {
	Text string `json:"text" validate:"required,maxbytes"`
}

// Validate checks the request against the engine's input contract.
//
// Returns an error wrapping ErrInvalidInput on any violation so handlers can
// map it to a 400 with errors.Is.
func (r *AssessRequest) Validate() error {
	if err := assessValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, validationMessage(err))
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: text must not be blank", ErrInvalidInput)
	}
	return nil
}

// validationMessage flattens a validator error into a caller-friendly string.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return "text is required"
		case "maxbytes":
			return fmt.Sprintf("text exceeds %d bytes", MaxStatementBytes)
		}
	}
	return err.Error()
}

// =============================================================================
// Assessment Aggregate
// =============================================================================

// OutcomePrediction pairs a qualitative outcome with its likelihood.
type OutcomePrediction struct {
	Outcome     string             `json:"outcome"`
	Probability OutcomeProbability `json:"probability"`
}

// Assessment is the root aggregate produced once per request.
//
// # Description
//
// Assessment merges the five producer signals, the deterministic fusion
// result, the rule-based outcome predictions and narrative, and the optional
// LLM enrichment. It is assembled once by the pipeline and immutable after
// assembly; nothing persists it beyond the response.
//
// # Fields
//
//   - ID: Unique identifier for this assessment (UUID v4), for audit
//     correlation across logs and traces.
//   - AssessedAt: UTC timestamp of assembly.
//   - HarmIndex: Composite harm score, an integer nominally in [0,100].
//     Deliberately unclamped: extreme emotion magnitudes can push it above
//     100, matching the reference formula.
//   - RiskLevel: Low (<=30), Medium (31-60), or High (>60).
//   - Uncertainty: Integer percentage band around the harm index. No upper
//     clamp, for the same reason as HarmIndex.
//   - EmotionScores, IntentAnalysis, TruthVerification: Mandatory signals;
//     fallback defaults are substituted when a producer is unreachable.
//   - PatternAnalysis, TemporalAnalysis: Enrichment signals; neutral
//     defaults are substituted on failure so the shape stays stable.
//   - PredictedOutcomes: Ordered, never empty (a single "limited behavioral
//     impact" entry is the floor).
//   - Narrative: Deterministic bullet-joined narrative. May be empty when no
//     clause threshold is met.
//   - AIExplanation: Optional LLM enrichment; omitted when the enrichment
//     call failed or is disabled.
type Assessment struct {
	ID         string    `json:"id"`
	AssessedAt time.Time `json:"assessedAt"`

	HarmIndex   int       `json:"harmIndex"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	Uncertainty int       `json:"uncertainty"`

	EmotionScores     EmotionSignal  `json:"emotionScores"`
	IntentAnalysis    IntentSignal   `json:"intentAnalysis"`
	TruthVerification TruthSignal    `json:"truthVerification"`
	PatternAnalysis   PatternSignal  `json:"patternAnalysis"`
	TemporalAnalysis  TemporalSignal `json:"temporalAnalysis"`

	PredictedOutcomes []OutcomePrediction `json:"predictedOutcomes"`
	Narrative         string              `json:"narrative"`
	AIExplanation     *NarrativeSignal    `json:"aiExplanation,omitempty"`
}
