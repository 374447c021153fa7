// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for the chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration. Origins default to empty, requiring explicit
	// configuration rather than shipping a wildcard.
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Per-client rate limiting for the API as a whole.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// GenerateCooldown is the minimum gap between generated sentences,
	// shared by all clients. Zero disables the cooldown.
	GenerateCooldown time.Duration
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,

		GenerateCooldown: 20 * time.Second,
	}
}

// ChiMiddleware provides chi-compatible middleware factories backed by the
// go-chi ecosystem packages.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the CORS middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns per-IP rate limiting for the API routes.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

// GenerateCooldown returns the shared cooldown for the generate endpoint:
// one generated sentence per window no matter who asks, the way a chat bot
// throttles its own talking.
func (m *ChiMiddleware) GenerateCooldown() func(http.Handler) http.Handler {
	if m.config.GenerateCooldown <= 0 {
		return passthrough
	}
	return httprate.Limit(
		1,
		m.config.GenerateCooldown,
		httprate.WithKeyFuncs(globalKey),
		httprate.WithLimitHandler(cooldownLimited),
	)
}

func globalKey(r *http.Request) (string, error) {
	return "global", nil
}

func passthrough(next http.Handler) http.Handler {
	return next
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests,
		"Rate limit exceeded, slow down")
}

func cooldownLimited(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests,
		"Generation is cooling down, try again shortly")
}
