// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/presence"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// echoHandler replies to every frame with an "echo" message carrying the raw frame.
type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, _ models.UserID, raw []byte) models.Message {
	return models.Message{Type: "echo", Data: string(raw)}
}

type recordingLastSeen struct {
	mu  sync.Mutex
	ids []models.UserID
}

func (l *recordingLastSeen) MarkLastSeen(_ context.Context, id models.UserID, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
	return nil
}

func (l *recordingLastSeen) recorded() []models.UserID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.UserID(nil), l.ids...)
}

// testServer is a websocket Server behind an httptest listener. The
// identity is taken from the ?user= query parameter.
type testServer struct {
	*httptest.Server
	ws       *Server
	registry *presence.Registry
	reaper   *presence.Reaper
	lastSeen *recordingLastSeen
}

func withQueryIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.URL.Query().Get("user"); id != "" {
			identity := models.Identity{UserID: models.UserID(id), Username: id, Active: true}
			r = r.WithContext(auth.ContextWithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T, cfg *config.Config, handler EventHandler) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = config.Defaults()
	}

	registry := presence.NewRegistry()
	lastSeen := &recordingLastSeen{}
	reaper := presence.NewReaper(registry, lastSeen, presence.Options{})
	if handler == nil {
		handler = echoHandler{}
	}

	ws := NewServer(registry, handler, reaper, cfg)
	srv := httptest.NewServer(withQueryIdentity(ws))
	t.Cleanup(func() {
		srv.Close()
		reaper.Wait()
	})

	return &testServer{Server: srv, ws: ws, registry: registry, reaper: reaper, lastSeen: lastSeen}
}

func (ts *testServer) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	conn, resp, err := ts.tryDial(user)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	waitFor(t, func() bool {
		c, ok := ts.registry.Lookup(models.UserID(user))
		return ok && c != nil
	}, user+" registered")
	return conn
}

func (ts *testServer) tryDial(user string) (*websocket.Conn, *http.Response, error) {
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?user=" + user
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

// frame is an outbound message as seen by a client.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return f
}

func writeFrame(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

// waitFor polls cond until it holds or a deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
