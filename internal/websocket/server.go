// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/presence"
)

// ShutdownReason identifies why the server is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Reaper produces the once-only teardown for a connection lifecycle.
type Reaper interface {
	Teardown(id models.UserID, conn presence.Conn) func()
}

// Server upgrades authenticated requests to sessions and registers them.
type Server struct {
	registry      *presence.Registry
	handler       EventHandler
	reaper        Reaper
	upgrader      websocket.Upgrader
	wsConfig      config.WebSocketConfig
	origins       []string
	kickDisplaced bool

	mu       sync.Mutex
	sessions map[*Session]struct{}
	draining bool
	running  atomic.Bool
}

// NewServer creates a websocket server.
func NewServer(registry *presence.Registry, handler EventHandler, reaper Reaper, cfg *config.Config) *Server {
	s := &Server{
		registry:      registry,
		handler:       handler,
		reaper:        reaper,
		wsConfig:      cfg.WebSocket,
		origins:       cfg.Server.AllowedOrigins,
		kickDisplaced: cfg.Presence.KickDisplaced,
		sessions:      make(map[*Session]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return s
}

// ServeHTTP upgrades the request and serves the session until it ends.
// The request must already carry an identity from auth.Gate.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
		return
	}
	if s.isDraining() {
		http.Error(w, `{"error":"server shutting down"}`, http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	session := newSession(conn, identity.UserID, s.handler, s.wsConfig)
	if !s.track(session) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	defer s.untrack(session)

	ctx := r.Context()
	reap := s.reaper.Teardown(identity.UserID, session)
	defer reap()

	if displaced := s.registry.Register(identity.UserID, session); displaced != nil {
		logging.Ctx(ctx).Info().
			Str("conn_id", session.ID()).
			Str("displaced_conn_id", displaced.ID()).
			Bool("kicked", s.kickDisplaced).
			Msg("Newer session replaced an existing registration")
		if s.kickDisplaced {
			_ = displaced.Send(presence.ErrorMessage("", "session replaced"))
			displaced.Close()
		}
	}

	logging.Ctx(ctx).Info().Str("conn_id", session.ID()).Int("online", s.registry.Count()).Msg("websocket client connected")
	session.run(ctx)
	logging.Ctx(ctx).Info().Str("conn_id", session.ID()).Msg("websocket client disconnected")
}

// RunWithContext marks the server ready and blocks until ctx is done, then
// closes every live session. Designed for suture supervision.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.mu.Lock()
	s.draining = false
	s.mu.Unlock()
	s.running.Store(true)

	<-ctx.Done()

	s.running.Store(false)
	closed := s.closeAll()

	logging.Info().
		Str("component", "websocket-server").
		Str("reason", string(getShutdownReason(ctx))).
		Int("sessions_closed", closed).
		Msg("websocket server stopped")
	return ctx.Err()
}

// Running reports whether RunWithContext is active.
func (s *Server) Running() bool {
	return s.running.Load()
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) track(session *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.sessions[session] = struct{}{}
	return true
}

func (s *Server) untrack(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
}

func (s *Server) isDraining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// closeAll stops accepting sessions and closes the live ones.
func (s *Server) closeAll() int {
	s.mu.Lock()
	s.draining = true
	sessions := make([]*Session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	return len(sessions)
}

// checkOrigin validates the Origin header against server.allowed_origins.
// Native clients send no Origin and are accepted; browsers always send one.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", logging.SanitizeString(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
