// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package main is the entry point for the Waypoint presence server.

Waypoint keeps one websocket per signed-in user and fans location, route
progress, ETA and notification events out to the friends and share
recipients that are online right now. Identities, friendships and route
shares are owned by the surrounding application and read through its
internal directory API.

# Process Layout

	waypoint
	├── delivery-layer
	│   └── embedded-nats (delivery.embedded_nats only)
	├── realtime-layer
	│   └── websocket-server
	└── api-layer
	    └── http-server (/ws, /api/v1/*, /metrics)

Initialization order:

 1. Configuration (koanf: defaults, config.yaml, environment) and logging
 2. Ephemeral state store (memory, badger or redis)
 3. Directory client (identities, friendships, route shares)
 4. Delivery publisher (NATS, by default on an embedded server)
 5. Presence components: registry, broadcaster, relay, reaper, dispatcher
 6. Websocket server, auth gate and chi router
 7. Supervisor tree

# Configuration

The minimum for a local run:

	export JWT_SECRET=$(openssl rand -base64 48)
	export DIRECTORY_URL=http://app.internal:8000/internal
	./waypoint

Clients connect to ws://host:8080/ws with the JWT in an
"Authorization: Bearer" header or a "token" query parameter.

# Signal Handling

SIGINT and SIGTERM cancel the tree. The websocket server closes every
session, the HTTP listener drains, and the process waits for pending
disconnect teardowns before closing the store and the publisher.
*/
package main
