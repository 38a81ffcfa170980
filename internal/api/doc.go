// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package api is the HTTP surface of the presence layer, built on chi.

Routes:

	GET /ws                          websocket handshake (rate limited per IP, authenticated)
	GET /api/v1/health/live          liveness, always 200
	GET /api/v1/health/ready         readiness, 503 until the websocket server runs
	GET /api/v1/presence             number of online identities (authenticated)
	GET /api/v1/presence/{userID}    online status of the caller or an accepted friend (authenticated)
	GET /metrics                     Prometheus exposition

Every route shares one authentication path with the websocket handshake:
auth.Gate verifies the bearer token (Authorization header or token query
parameter) and rejects with 401 and a JSON reason.

REST responses use a single envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "user not found"}}
*/
package api
