// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yapbot/yapcore/internal/middleware"
)

// Router wires the endpoint handler and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given handler and middleware config.
func NewRouter(handler *Handler, cfg *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Operational endpoints stay outside the API rate limits so probes
	// and scrapes never compete with clients.
	r.Get("/healthz", router.handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/train", router.handler.Train)

		r.With(router.chiMiddleware.GenerateCooldown()).
			Get("/generate", router.handler.Generate)

		r.Route("/model", func(r chi.Router) {
			r.Get("/stats", router.handler.Stats)
			r.Delete("/message", router.handler.Unlearn)
			r.Delete("/", router.handler.Reset)
		})
	})

	return r
}
