// Copyright (C) 2025 HarmLens Labs (dev@harmlens.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(rps, burst))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doGet(router *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	// 1 rps with burst 3: the first three requests pass, the fourth is
	// rejected before the bucket can refill.
	router := newLimitedRouter(1, 3)

	for i := 0; i < 3; i++ {
		if code := doGet(router); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := doGet(router); code != http.StatusTooManyRequests {
		t.Fatalf("burst-exceeding request = %d, want 429", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := newLimitedRouter(0, 0)

	for i := 0; i < 50; i++ {
		if code := doGet(router); code != http.StatusOK {
			t.Fatalf("request %d = %d with limiting disabled", i+1, code)
		}
	}
}
