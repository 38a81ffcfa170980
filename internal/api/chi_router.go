// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler   *Handler
	gate      *auth.Gate
	websocket http.Handler
	mw        *ChiMiddleware
}

// NewRouter creates a router. websocket serves the upgrade and expects the
// identity attached by gate.
func NewRouter(handler *Handler, gate *auth.Gate, websocket http.Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:   handler,
		gate:      gate,
		websocket: websocket,
		mw:        NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())

	// The upgrade needs the raw ResponseWriter (http.Hijacker), so no
	// response-wrapping middleware on this route.
	r.With(router.mw.RateLimitHandshake(), router.gate.Middleware).
		Get("/ws", router.websocket.ServeHTTP)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/presence", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.gate.Middleware)
		r.Get("/", router.handler.PresenceCount)
		r.Get("/{userID}", router.handler.PresenceOf)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
