// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command harmlens starts the HarmLens assessment engine HTTP server.
//
// Configuration is layered: built-in defaults, then an optional YAML config
// file, then environment variables. Environment variables win.
//
// # Environment Variables
//
//   - HARMLENS_PORT: HTTP server port (default: 8090)
//   - HARMLENS_EMOTION_URL, HARMLENS_INTENT_URL, HARMLENS_TRUTH_URL,
//     HARMLENS_PATTERN_URL, HARMLENS_TEMPORAL_URL: signal producer base URLs
//   - HARMLENS_EXPLAIN_URL: explanation service base URL
//   - HARMLENS_NARRATIVE_BACKEND: http, openai, template, disabled (default: http)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: harmlens-otel-collector:4317)
//   - OPENAI_API_KEY, OPENAI_MODEL: for the openai narrative backend
//
// # Usage
//
//	# Build
//	go build -o harmlens ./cmd/harmlens
//
//	# Run
//	./harmlens serve
//
//	# With a config file
//	./harmlens serve --config /etc/harmlens/config.yaml
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harmlens-ai/harmlens/pkg/logging"
	"github.com/harmlens-ai/harmlens/services/engine"
	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

var (
	configPath string
	portFlag   int
	jsonLogs   bool
)

// fileConfig mirrors the YAML config file layout.
type fileConfig struct {
	Port      int    `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	Producers struct {
		EmotionURL  string `yaml:"emotion_url"`
		IntentURL   string `yaml:"intent_url"`
		TruthURL    string `yaml:"truth_url"`
		PatternURL  string `yaml:"pattern_url"`
		TemporalURL string `yaml:"temporal_url"`
	} `yaml:"producers"`
	Narrative struct {
		Backend string `yaml:"backend"`
		URL     string `yaml:"url"`
	} `yaml:"narrative"`
	OTelEndpoint   string  `yaml:"otel_endpoint"`
	DisableMetrics bool    `yaml:"disable_metrics"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	LogDir         string  `yaml:"log_dir"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "harmlens",
		Short: "HarmLens misinformation assessment engine",
		Long: "HarmLens orchestrates five ML signal producers, fuses their\n" +
			"signals into a composite harm index and risk tier, and serves\n" +
			"complete assessments over HTTP.",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment engine HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "HTTP server port (overrides config)")
	serveCmd.Flags().BoolVar(&jsonLogs, "json-logs", true, "emit JSON logs on stderr")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	fc, err := loadFileConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "engine",
		JSON:    jsonLogs,
		LogDir:  fc.LogDir,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := buildEngineConfig(fc)

	slog.Info("Starting assessment engine",
		"port", cfg.Port,
		"narrative_backend", cfg.NarrativeBackend,
		"metrics", cfg.EnableMetrics,
	)

	svc, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// Blocks until shutdown
	if err := svc.Run(); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
	return nil
}

// loadFileConfig reads the optional YAML config file. A missing --config
// flag means defaults plus environment variables.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// buildEngineConfig layers flag and environment overrides over the file
// config. Environment variables win over the file; flags win over both.
func buildEngineConfig(fc fileConfig) engine.Config {
	env := signals.ConfigFromEnv()
	producers := signals.Config{
		EmotionURL:  producerURL(fc.Producers.EmotionURL, "HARMLENS_EMOTION_URL", env.EmotionURL),
		IntentURL:   producerURL(fc.Producers.IntentURL, "HARMLENS_INTENT_URL", env.IntentURL),
		TruthURL:    producerURL(fc.Producers.TruthURL, "HARMLENS_TRUTH_URL", env.TruthURL),
		PatternURL:  producerURL(fc.Producers.PatternURL, "HARMLENS_PATTERN_URL", env.PatternURL),
		TemporalURL: producerURL(fc.Producers.TemporalURL, "HARMLENS_TEMPORAL_URL", env.TemporalURL),
	}

	cfg := engine.Config{
		Port:             fc.Port,
		Producers:        producers,
		NarrativeBackend: fc.Narrative.Backend,
		NarrativeURL:     fc.Narrative.URL,
		OTelEndpoint:     fc.OTelEndpoint,
		EnableMetrics:    !fc.DisableMetrics,
		GinMode:          fc.GinMode,
		RateLimitRPS:     fc.RateLimitRPS,
		RateLimitBurst:   fc.RateLimitBurst,
	}

	cfg.Port = getEnvInt("HARMLENS_PORT", cfg.Port)
	if v := os.Getenv("HARMLENS_NARRATIVE_BACKEND"); v != "" {
		cfg.NarrativeBackend = v
	}
	if v := os.Getenv("HARMLENS_EXPLAIN_URL"); v != "" {
		cfg.NarrativeURL = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTelEndpoint = v
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	return cfg
}

// producerURL resolves one producer base URL. The environment variable wins
// when set; an empty file value falls back to the env-or-default resolution
// so a bare `harmlens serve` still reaches the compose-network producers.
func producerURL(fileVal, envKey, envVal string) string {
	if os.Getenv(envKey) != "" || fileVal == "" {
		return envVal
	}
	return fileVal
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
