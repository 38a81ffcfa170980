// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package supervisor runs Waypoint's long-lived services under suture v4.

# Overview

Services are grouped into three layers so a failure restarts within its own
layer:

	waypoint
	├── delivery-layer
	│   └── EmbeddedNATSService (delivery.embedded_nats)
	├── realtime-layer
	│   └── WebSocketServerService
	└── api-layer
	    └── HTTPServerService

The websocket server is not a listener of its own: its handshake handler is
mounted on the HTTP router. Its service only toggles readiness and, on
shutdown, closes every live session so their teardown runs before the process
exits.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddRealtimeService(services.NewWebSocketServerService(wsServer))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)

Supervisor events (restarts, backoff, panics) are logged through sutureslog
on top of the zerolog-backed slog handler from internal/logging.

# See Also

  - internal/supervisor/services: service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
