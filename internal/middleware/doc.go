// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package middleware provides HTTP infrastructure middleware.

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, duration and in-flight gauge

PrometheusMetrics wraps the ResponseWriter and therefore must not sit in
front of the websocket upgrade, which needs http.Hijacker. The router applies
it to the REST routes only:

	r.Route("/api/v1/presence", func(r chi.Router) {
	    r.Use(middleware.RequestID)
	    r.Use(middleware.PrometheusMetrics)
	    ...
	})
*/
package middleware
