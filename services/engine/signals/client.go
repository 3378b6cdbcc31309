// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package signals provides the clients for the five signal producer services
// and the narrative enrichment backend, plus the fallback defaults used when
// a producer is unreachable.
//
// Clients here return errors; they never substitute defaults themselves.
// The pipeline maps an error to the corresponding default deterministically,
// so the substitution policy lives in exactly one place.
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
	"github.com/harmlens-ai/harmlens/services/engine/observability"
)

// Kind identifies one signal producer.
type Kind string

const (
	KindEmotion  Kind = "emotion"
	KindIntent   Kind = "intent"
	KindTruth    Kind = "truth"
	KindPattern  Kind = "pattern"
	KindTemporal Kind = "temporal"
)

// Kinds lists all producers in dispatch order.
var Kinds = []Kind{KindEmotion, KindIntent, KindTruth, KindPattern, KindTemporal}

// DefaultProducerTimeout bounds each producer call independently.
const DefaultProducerTimeout = 5 * time.Second

// =============================================================================
// Configuration
// =============================================================================

// Config holds the base URLs of the five producer services and the shared
// per-call time budget.
type Config struct {
	EmotionURL  string
	IntentURL   string
	TruthURL    string
	PatternURL  string
	TemporalURL string

	// Timeout is the per-call budget, applied independently to every
	// producer call. Exceeding it is indistinguishable from any other
	// producer failure.
	Timeout time.Duration
}

// ConfigFromEnv builds a Config from HARMLENS_* environment variables with
// the compose-network defaults (ports match the producer services).
func ConfigFromEnv() Config {
	return Config{
		EmotionURL:  envOr("HARMLENS_EMOTION_URL", "http://emotion-service:8001"),
		IntentURL:   envOr("HARMLENS_INTENT_URL", "http://intent-service:8002"),
		TruthURL:    envOr("HARMLENS_TRUTH_URL", "http://truth-service:8003"),
		PatternURL:  envOr("HARMLENS_PATTERN_URL", "http://pattern-service:8004"),
		TemporalURL: envOr("HARMLENS_TEMPORAL_URL", "http://temporal-service:8006"),
		Timeout:     DefaultProducerTimeout,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ResolveFromEnv fills the empty base URLs of a Config from the HARMLENS_*
// environment variables or the compose-network defaults. Explicit URLs are
// left alone.
func (c Config) ResolveFromEnv() Config {
	env := ConfigFromEnv()
	if c.EmotionURL == "" {
		c.EmotionURL = env.EmotionURL
	}
	if c.IntentURL == "" {
		c.IntentURL = env.IntentURL
	}
	if c.TruthURL == "" {
		c.TruthURL = env.TruthURL
	}
	if c.PatternURL == "" {
		c.PatternURL = env.PatternURL
	}
	if c.TemporalURL == "" {
		c.TemporalURL = env.TemporalURL
	}
	return c
}

// applyDefaults fills the zero-valued fields of a Config.
func (c Config) applyDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultProducerTimeout
	}
	return c
}

// =============================================================================
// Client
// =============================================================================

// Client calls the five signal producer services.
//
// Every producer accepts {"text": ...}; the analysis services answer on
// /analyze and the CNN-BERT pattern service on /predict. Any non-2xx
// response, timeout, or decode failure is returned as an error for the
// pipeline to map to the signal's default.
type Client struct {
	cfg     Config
	http    *http.Client
	metrics *observability.EngineMetrics
}

// NewClient creates a producer client. metrics may be nil.
func NewClient(cfg Config, metrics *observability.EngineMetrics) *Client {
	cfg = cfg.applyDefaults()
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: metrics,
	}
}

// textRequest is the common producer request body.
type textRequest struct {
	Text string `json:"text"`
}

// Emotion fetches the emotion magnitudes for text.
func (c *Client) Emotion(ctx context.Context, text string) (datatypes.EmotionSignal, error) {
	var out datatypes.EmotionSignal
	err := c.post(ctx, KindEmotion, c.cfg.EmotionURL+"/analyze", text, &out)
	return out, err
}

// Intent fetches the intent classification for text.
func (c *Client) Intent(ctx context.Context, text string) (datatypes.IntentSignal, error) {
	var out datatypes.IntentSignal
	err := c.post(ctx, KindIntent, c.cfg.IntentURL+"/analyze", text, &out)
	return out, err
}

// Truth fetches the truth-verification result for text.
func (c *Client) Truth(ctx context.Context, text string) (datatypes.TruthSignal, error) {
	var out datatypes.TruthSignal
	err := c.post(ctx, KindTruth, c.cfg.TruthURL+"/analyze", text, &out)
	return out, err
}

// Pattern fetches the deep-pattern harm prediction for text.
func (c *Client) Pattern(ctx context.Context, text string) (datatypes.PatternSignal, error) {
	var out datatypes.PatternSignal
	err := c.post(ctx, KindPattern, c.cfg.PatternURL+"/predict", text, &out)
	return out, err
}

// Temporal fetches the time-series trend context for text.
func (c *Client) Temporal(ctx context.Context, text string) (datatypes.TemporalSignal, error) {
	var out datatypes.TemporalSignal
	err := c.post(ctx, KindTemporal, c.cfg.TemporalURL+"/analyze", text, &out)
	return out, err
}

// post issues one bounded producer call and decodes the JSON response.
func (c *Client) post(ctx context.Context, kind Kind, url, text string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.metrics.RecordProducerCall(string(kind), false, elapsed)
		return fmt.Errorf("call %s producer: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordProducerCall(string(kind), false, elapsed)
		return fmt.Errorf("%s producer returned status %d", kind, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.RecordProducerCall(string(kind), false, elapsed)
		return fmt.Errorf("decode %s response: %w", kind, err)
	}

	c.metrics.RecordProducerCall(string(kind), true, elapsed)
	return nil
}

// =============================================================================
// Producer Health
// =============================================================================

// Health status values reported by Health().
const (
	HealthOK          = "ok"
	HealthUnreachable = "unreachable"
)

// healthProbeTimeout bounds each individual health probe.
const healthProbeTimeout = 2 * time.Second

// Health probes every producer's /health endpoint concurrently and reports
// per-producer reachability. A non-2xx response, timeout, or transport error
// all read as unreachable.
func (c *Client) Health(ctx context.Context) map[Kind]string {
	urls := map[Kind]string{
		KindEmotion:  c.cfg.EmotionURL,
		KindIntent:   c.cfg.IntentURL,
		KindTruth:    c.cfg.TruthURL,
		KindPattern:  c.cfg.PatternURL,
		KindTemporal: c.cfg.TemporalURL,
	}

	var mu sync.Mutex
	statuses := make(map[Kind]string, len(urls))

	var wg sync.WaitGroup
	for kind, base := range urls {
		wg.Add(1)
		go func(kind Kind, base string) {
			defer wg.Done()
			status := HealthUnreachable
			if c.probe(ctx, base+"/health") {
				status = HealthOK
			}
			mu.Lock()
			statuses[kind] = status
			mu.Unlock()
		}(kind, base)
	}
	wg.Wait()

	return statuses
}

// probe issues one GET with a short budget and reports 2xx success.
func (c *Client) probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
