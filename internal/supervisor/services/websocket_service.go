// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package services

import (
	"context"
)

// ContextServer is satisfied by *websocket.Server. The interface keeps this
// package free of the websocket import.
type ContextServer interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketServerService supervises the websocket server's lifetime. While it
// runs the server accepts handshakes; on cancellation every session is closed
// and new handshakes get 503.
type WebSocketServerService struct {
	server ContextServer
	name   string
}

// NewWebSocketServerService wraps server.
func NewWebSocketServerService(server ContextServer) *WebSocketServerService {
	return &WebSocketServerService{
		server: server,
		name:   "websocket-server",
	}
}

// Serve implements suture.Service.
func (w *WebSocketServerService) Serve(ctx context.Context) error {
	return w.server.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (w *WebSocketServerService) String() string {
	return w.name
}
