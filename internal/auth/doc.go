// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package auth gates live connections behind a bearer credential.
//
// The Gate runs once per handshake. It extracts an HS256 JWT from the
// `Authorization: Bearer` header or the `token` query parameter (the
// handshake auth field for browser clients that cannot set headers), verifies
// it, resolves the subject through an IdentityLookup and rejects unknown or
// inactive users. On success the resolved models.Identity is attached to the
// request context:
//
//	gate := auth.NewGate(jwtManager, directoryClient, 3*time.Second)
//	r.With(gate.Middleware).Get("/ws", wsServer.ServeHTTP)
//
//	// inside the handler
//	identity, _ := auth.IdentityFromContext(r.Context())
//
// The gate has no side effects beyond logging and metrics. A failing identity
// service fails closed: the handshake is rejected.
package auth
