// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Narrative enrichment backends.
//
// The enrichment call is the one dependent producer: it runs strictly after
// fusion because its request carries the already-computed harm index and
// risk tier. It has no fallback default; on failure the Assessment omits
// the AIExplanation field entirely.
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
)

// DefaultEnrichmentTimeout bounds the enrichment call. Longer than the
// producer budget because LLM completions are slow.
const DefaultEnrichmentTimeout = 20 * time.Second

// ExplainRequest carries the fused assessment core to the enrichment
// backend.
type ExplainRequest struct {
	Text      string
	HarmIndex int
	RiskLevel datatypes.RiskLevel
	Emotion   datatypes.EmotionSignal
	Intent    datatypes.IntentSignal
	Truth     datatypes.TruthSignal
}

// NarrativeClient generates the free-form explanation for an assessment.
type NarrativeClient interface {
	Explain(ctx context.Context, req ExplainRequest) (datatypes.NarrativeSignal, error)
}

// NarrativeConfig selects and configures the enrichment backend.
type NarrativeConfig struct {
	// Backend is one of "http", "openai", "template", "disabled".
	// Default: "http".
	Backend string

	// URL is the explanation service base URL (http backend only).
	URL string

	// Timeout is the enrichment call budget. Default: 20s.
	Timeout time.Duration
}

// NewNarrativeClient creates the configured enrichment backend.
//
// Returns (nil, nil) for the "disabled" backend: a nil NarrativeClient means
// assessments are returned without an AIExplanation.
func NewNarrativeClient(cfg NarrativeConfig) (NarrativeClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultEnrichmentTimeout
	}

	switch cfg.Backend {
	case "", "http":
		url := cfg.URL
		if url == "" {
			url = envOr("HARMLENS_EXPLAIN_URL", "http://explain-service:8005")
		}
		slog.Info("Using HTTP explanation service backend", "url", url)
		return &httpNarrator{
			baseURL: url,
			http:    &http.Client{Timeout: cfg.Timeout},
		}, nil
	case "openai":
		return newOpenAINarrator()
	case "template":
		slog.Info("Using template explanation backend")
		return &templateNarrator{}, nil
	case "disabled", "none":
		slog.Info("Narrative enrichment disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown narrative backend %q", cfg.Backend)
	}
}

// =============================================================================
// HTTP Backend
// =============================================================================

// httpNarrator posts to the explanation service's /explain endpoint.
type httpNarrator struct {
	baseURL string
	http    *http.Client
}

// explainWire is the /explain request body. Field names match the
// explanation service's contract.
type explainWire struct {
	Text              string                  `json:"text"`
	HarmIndex         int                     `json:"harmIndex"`
	RiskLevel         string                  `json:"riskLevel"`
	EmotionScores     datatypes.EmotionSignal `json:"emotionScores"`
	IntentAnalysis    datatypes.IntentSignal  `json:"intentAnalysis"`
	TruthVerification datatypes.TruthSignal   `json:"truthVerification"`
}

func (n *httpNarrator) Explain(ctx context.Context, req ExplainRequest) (datatypes.NarrativeSignal, error) {
	var out datatypes.NarrativeSignal

	body, err := json.Marshal(explainWire{
		Text:              req.Text,
		HarmIndex:         req.HarmIndex,
		RiskLevel:         string(req.RiskLevel),
		EmotionScores:     req.Emotion,
		IntentAnalysis:    req.Intent,
		TruthVerification: req.Truth,
	})
	if err != nil {
		return out, fmt.Errorf("marshal explain request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.baseURL+"/explain", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("create explain request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("call explanation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fmt.Errorf("explanation service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode explain response: %w", err)
	}
	return out, nil
}

// =============================================================================
// OpenAI Backend
// =============================================================================

// openAINarrator generates the explanation with an OpenAI chat completion
// and fills insights and recommendations from the deterministic rules, so a
// bare completion still yields the full NarrativeSignal shape.
type openAINarrator struct {
	client *openai.Client
	model  string
}

func newOpenAINarrator() (*openAINarrator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the OpenAI API key from container secrets")
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Using OpenAI explanation backend", "model", model)
	return &openAINarrator{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

const explainSystemPrompt = "You are a misinformation analyst. Explain risk " +
	"assessments clearly and professionally in a short paragraph, without " +
	"restating the raw numbers as a list."

// maxPromptTextBytes truncates the assessed statement inside the prompt.
const maxPromptTextBytes = 400

func (n *openAINarrator) Explain(ctx context.Context, req ExplainRequest) (datatypes.NarrativeSignal, error) {
	var out datatypes.NarrativeSignal

	statement := req.Text
	if len(statement) > maxPromptTextBytes {
		statement = statement[:maxPromptTextBytes]
	}

	prompt := fmt.Sprintf(
		"Analyze this statement for misinformation risk:\n\n"+
			"Statement: %q\n\n"+
			"Analysis results:\n"+
			"- Harm index: %d/100 (%s risk)\n"+
			"- Dominant emotion: %s\n"+
			"- Intent: %s\n"+
			"- Similarity to known false narratives: %d%%\n\n"+
			"Explain why this statement received this risk score.",
		statement,
		req.HarmIndex, req.RiskLevel,
		dominantEmotion(req.Emotion),
		req.Intent.Type,
		int(req.Truth.SimilarityToFalseNarratives*100),
	)

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explainSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return out, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("OpenAI returned no choices")
	}

	out.Explanation = strings.TrimSpace(resp.Choices[0].Message.Content)
	out.Insights = RuleInsights(req)
	out.Recommendations = RuleRecommendations(req)
	return out, nil
}

// =============================================================================
// Template Backend
// =============================================================================

// templateNarrator produces a deterministic local explanation. Used when no
// explanation service or LLM is deployed; also handy in tests.
type templateNarrator struct{}

func (n *templateNarrator) Explain(_ context.Context, req ExplainRequest) (datatypes.NarrativeSignal, error) {
	return datatypes.NarrativeSignal{
		Explanation:     TemplateExplanation(req),
		Insights:        RuleInsights(req),
		Recommendations: RuleRecommendations(req),
	}, nil
}
