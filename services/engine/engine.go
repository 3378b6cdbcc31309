// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine provides the assessment orchestration service for HarmLens.
//
// This package contains the main engine type that coordinates all components
// of the service: HTTP routing, the five signal producer clients, the fusion
// calculator, narrative enrichment, and observability infrastructure.
//
// # Usage
//
//	cfg := engine.Config{Port: 8090}
//	svc, err := engine.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/harmlens-ai/harmlens/services/engine/fusion"
	"github.com/harmlens-ai/harmlens/services/engine/middleware"
	"github.com/harmlens-ai/harmlens/services/engine/observability"
	"github.com/harmlens-ai/harmlens/services/engine/pipeline"
	"github.com/harmlens-ai/harmlens/services/engine/routes"
	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the assessment engine service.
//
// # Description
//
// Service abstracts the engine lifecycle, enabling testing and alternative
// implementations. Run() blocks and should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// Callers must not modify the router after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds engine configuration options.
//
// # Description
//
// Config centralizes all configuration for the assessment engine. Values can
// be populated from environment variables, config files, or programmatically
// for testing. All fields are optional with defaults applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 8090
	Port int

	// Producers holds the five signal producer base URLs and the shared
	// per-call timeout. Empty URLs resolve from the HARMLENS_*_URL env
	// vars or the compose-network defaults.
	Producers signals.Config

	// NarrativeBackend selects the enrichment backend.
	// Valid values: "http", "openai", "template", "disabled"
	// Default: "http"
	NarrativeBackend string

	// NarrativeURL is the explanation service base URL (http backend only).
	NarrativeURL string

	// NarrativeTimeout bounds the enrichment call. Default: 20s
	NarrativeTimeout time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "harmlens-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// RateLimitRPS is the global assessment rate limit in requests per
	// second. Zero or negative disables limiting.
	RateLimitRPS float64

	// RateLimitBurst is the token-bucket burst size. Default: 10 when
	// limiting is enabled.
	RateLimitBurst int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	producers     *signals.Client
	narrator      signals.NarrativeClient
	pipeline      *pipeline.Pipeline
	metrics       *observability.EngineMetrics
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new engine Service with the given configuration.
//
// # Description
//
// New initializes all engine components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Creates the signal producer client
//  5. Creates the narrative enrichment backend
//  6. Sets up HTTP routes
//
// A failed narrative backend is not fatal: the engine runs without
// enrichment and assessments omit the AIExplanation field.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run engine service
//   - error: Non-nil if initialization fails
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics {
		s.metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for assessments")
	}

	s.producers = signals.NewClient(s.config.Producers, s.metrics)

	s.narrator, err = signals.NewNarrativeClient(signals.NarrativeConfig{
		Backend: s.config.NarrativeBackend,
		URL:     s.config.NarrativeURL,
		Timeout: s.config.NarrativeTimeout,
	})
	if err != nil {
		slog.Warn("Narrative backend initialization failed, running without enrichment",
			"backend", s.config.NarrativeBackend, "error", err)
		s.narrator = nil
	}

	s.pipeline = pipeline.New(s.producers, s.narrator, fusion.DefaultConfig(), s.metrics)

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting assessment engine server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.NarrativeBackend == "" {
		cfg.NarrativeBackend = "http"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "harmlens-otel-collector:4317"
	}
	cfg.Producers = cfg.Producers.ResolveFromEnv()
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
// Returns a cleanup function to call on shutdown.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("harmlens-engine")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with middleware and all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("harmlens-engine"))

	limiter := middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst)
	routes.SetupRoutes(s.router, s.pipeline, s.producers, s.metrics, s.config.EnableMetrics, limiter)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
