// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harmlens-ai/harmlens/services/engine/handlers"
	"github.com/harmlens-ai/harmlens/services/engine/observability"
	"github.com/harmlens-ai/harmlens/services/engine/pipeline"
	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

// SetupRoutes registers all engine routes. The rate limiter covers only the
// /v1 API group so liveness and scrape endpoints stay unthrottled. limiter
// may be nil.
func SetupRoutes(router *gin.Engine, p *pipeline.Pipeline, producers *signals.Client,
	metrics *observability.EngineMetrics, enableMetrics bool, limiter gin.HandlerFunc) {

	router.GET("/health", handlers.HealthCheck)
	if enableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	if limiter != nil {
		v1.Use(limiter)
	}
	{
		v1.POST("/assess", handlers.HandleAssess(p, metrics))
		v1.GET("/producers/health", handlers.HandleProducerHealth(producers))
	}
}
