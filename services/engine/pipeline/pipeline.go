// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// # Description
// Package pipeline runs the full assessment flow: concurrent fan-out to the
// five signal producers, per-producer fallback substitution, weighted fusion,
// outcome prediction, narrative composition and optional LLM enrichment.
//
// # Inputs
// A raw statement string plus a request context.
//
// # Outputs
// A complete datatypes.Assessment. The only error paths are invalid input
// and context cancellation; producer failures degrade to documented defaults
// instead of failing the assessment.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
	"github.com/harmlens-ai/harmlens/services/engine/fusion"
	"github.com/harmlens-ai/harmlens/services/engine/observability"
	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

// ProducerClient fetches the five independent signals. Satisfied by
// *signals.Client; tests substitute fakes.
type ProducerClient interface {
	Emotion(ctx context.Context, text string) (datatypes.EmotionSignal, error)
	Intent(ctx context.Context, text string) (datatypes.IntentSignal, error)
	Truth(ctx context.Context, text string) (datatypes.TruthSignal, error)
	Pattern(ctx context.Context, text string) (datatypes.PatternSignal, error)
	Temporal(ctx context.Context, text string) (datatypes.TemporalSignal, error)
}

// Pipeline orchestrates a single assessment end to end.
type Pipeline struct {
	producers ProducerClient
	narrator  signals.NarrativeClient
	fusion    fusion.Config
	metrics   *observability.EngineMetrics
}

// New creates a Pipeline. narrator may be nil, in which case assessments
// carry no AIExplanation.
func New(
	producers ProducerClient,
	narrator signals.NarrativeClient,
	fusionCfg fusion.Config,
	metrics *observability.EngineMetrics,
) *Pipeline {
	return &Pipeline{
		producers: producers,
		narrator:  narrator,
		fusion:    fusionCfg,
		metrics:   metrics,
	}
}

// Assess runs the full flow for one statement.
//
// The five producer fetches run concurrently and independently. A producer
// failure never fails the assessment: the failed signal is replaced by its
// neutral default and the substitution is logged and counted. Enrichment
// runs after fusion because its request includes the computed score and tier.
func (p *Pipeline) Assess(ctx context.Context, text string) (datatypes.Assessment, error) {
	if strings.TrimSpace(text) == "" {
		return datatypes.Assessment{}, fmt.Errorf("%w: text must not be blank", datatypes.ErrInvalidInput)
	}

	tracer := otel.Tracer("harmlens.engine.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.Assess")
	defer span.End()

	var (
		emotion  datatypes.EmotionSignal
		intent   datatypes.IntentSignal
		truth    datatypes.TruthSignal
		pattern  datatypes.PatternSignal
		temporal datatypes.TemporalSignal
	)

	// Fan out. Errors are absorbed inside each closure, so the group never
	// returns an error and never cancels sibling fetches.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if emotion, err = p.producers.Emotion(gctx, text); err != nil {
			emotion = p.fallbackEmotion(err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if intent, err = p.producers.Intent(gctx, text); err != nil {
			intent = p.fallbackIntent(err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if truth, err = p.producers.Truth(gctx, text); err != nil {
			truth = p.fallbackTruth(err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pattern, err = p.producers.Pattern(gctx, text); err != nil {
			pattern = p.fallbackPattern(err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if temporal, err = p.producers.Temporal(gctx, text); err != nil {
			temporal = p.fallbackTemporal(err)
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return datatypes.Assessment{}, fmt.Errorf("assessment canceled: %w", err)
	}

	fused := p.fusion.Fuse(emotion, intent, truth, pattern.HarmScore)
	span.SetAttributes(
		attribute.Int("harmlens.harm_index", fused.HarmIndex),
		attribute.String("harmlens.risk_level", string(fused.RiskLevel)),
	)
	p.metrics.RecordRiskLevel(string(fused.RiskLevel))

	assessment := datatypes.Assessment{
		ID:                uuid.NewString(),
		AssessedAt:        time.Now().UTC(),
		HarmIndex:         fused.HarmIndex,
		RiskLevel:         fused.RiskLevel,
		Uncertainty:       fused.Uncertainty,
		EmotionScores:     emotion,
		IntentAnalysis:    intent,
		TruthVerification: truth,
		PatternAnalysis:   pattern,
		TemporalAnalysis:  temporal,
		PredictedOutcomes: fusion.PredictOutcomes(fused.HarmIndex, intent, emotion),
		Narrative:         fusion.ComposeNarrative(emotion, intent, truth),
	}

	p.enrich(ctx, text, &assessment)
	return assessment, nil
}

// enrich attaches the LLM explanation when a narrator is configured. Failures
// are absorbed: the assessment is returned without the AIExplanation field.
func (p *Pipeline) enrich(ctx context.Context, text string, a *datatypes.Assessment) {
	if p.narrator == nil {
		p.metrics.RecordEnrichment(observability.OutcomeDisabled)
		return
	}

	narrative, err := p.narrator.Explain(ctx, signals.ExplainRequest{
		Text:      text,
		HarmIndex: a.HarmIndex,
		RiskLevel: a.RiskLevel,
		Emotion:   a.EmotionScores,
		Intent:    a.IntentAnalysis,
		Truth:     a.TruthVerification,
	})
	if err != nil {
		slog.Warn("Narrative enrichment failed, returning assessment without explanation",
			"error", err)
		p.metrics.RecordEnrichment(observability.OutcomeError)
		return
	}
	a.AIExplanation = &narrative
	p.metrics.RecordEnrichment(observability.OutcomeOK)
}

// =============================================================================
// Fallback Substitution
// =============================================================================

func (p *Pipeline) recordFallback(kind signals.Kind, err error) {
	slog.Warn("Signal producer unavailable, substituting default",
		"producer", string(kind), "error", err)
	p.metrics.RecordFallback(string(kind))
}

func (p *Pipeline) fallbackEmotion(err error) datatypes.EmotionSignal {
	p.recordFallback(signals.KindEmotion, err)
	return signals.DefaultEmotion()
}

func (p *Pipeline) fallbackIntent(err error) datatypes.IntentSignal {
	p.recordFallback(signals.KindIntent, err)
	return signals.DefaultIntent()
}

func (p *Pipeline) fallbackTruth(err error) datatypes.TruthSignal {
	p.recordFallback(signals.KindTruth, err)
	return signals.DefaultTruth()
}

func (p *Pipeline) fallbackPattern(err error) datatypes.PatternSignal {
	p.recordFallback(signals.KindPattern, err)
	return signals.DefaultPattern()
}

func (p *Pipeline) fallbackTemporal(err error) datatypes.TemporalSignal {
	p.recordFallback(signals.KindTemporal, err)
	return signals.DefaultTemporal()
}
