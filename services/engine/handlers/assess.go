// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers wires the assessment pipeline to the HTTP surface.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harmlens-ai/harmlens/services/engine/datatypes"
	"github.com/harmlens-ai/harmlens/services/engine/observability"
	"github.com/harmlens-ai/harmlens/services/engine/pipeline"
)

// HandleAssess runs a full assessment for the posted statement.
func HandleAssess(p *pipeline.Pipeline, metrics *observability.EngineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := otel.Tracer("harmlens.engine.handlers")
		ctx, span := tracer.Start(c.Request.Context(), "handlers.HandleAssess")
		defer span.End()

		start := time.Now()

		var req datatypes.AssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.RecordAssessment(observability.StatusInvalidInput, time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			metrics.RecordAssessment(observability.StatusInvalidInput, time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		assessment, err := p.Assess(ctx, req.Text)
		if err != nil {
			if errors.Is(err, datatypes.ErrInvalidInput) {
				metrics.RecordAssessment(observability.StatusInvalidInput, time.Since(start).Seconds())
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			slog.Error("Assessment failed", "error", err)
			metrics.RecordAssessment(observability.StatusError, time.Since(start).Seconds())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment failed"})
			return
		}

		span.SetAttributes(attribute.String("harmlens.assessment_id", assessment.ID))
		metrics.RecordAssessment(observability.StatusSuccess, time.Since(start).Seconds())
		c.JSON(http.StatusOK, assessment)
	}
}
