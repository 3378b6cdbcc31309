// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmlens-ai/harmlens/services/engine/signals"
)

// HealthCheck reports engine liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "harmlens-engine"})
}

// HandleProducerHealth probes every signal producer concurrently and reports
// per-producer reachability. The engine itself is healthy even when
// producers are down, so this always returns 200.
func HandleProducerHealth(client *signals.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := client.Health(c.Request.Context())

		producers := make(map[string]string, len(statuses))
		degraded := false
		for kind, status := range statuses {
			producers[string(kind)] = status
			if status != signals.HealthOK {
				degraded = true
			}
		}

		overall := "ok"
		if degraded {
			overall = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    overall,
			"producers": producers,
		})
	}
}
