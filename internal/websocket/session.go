// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/presence"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// EventHandler turns one inbound frame into the reply for its sender.
// presence.Dispatcher implements it.
type EventHandler interface {
	Handle(ctx context.Context, sender models.UserID, raw []byte) models.Message
}

// Session is one live client connection. It implements presence.Conn.
type Session struct {
	id     string
	userID models.UserID
	conn   *websocket.Conn

	send      chan models.Message
	done      chan struct{}
	closeOnce sync.Once

	handler        EventHandler
	limiter        *rate.Limiter
	inflight       chan struct{}
	maxMessageSize int64
	handlers       sync.WaitGroup
}

func newSession(conn *websocket.Conn, userID models.UserID, handler EventHandler, cfg config.WebSocketConfig) *Session {
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	maxInflight := cfg.MaxInflight
	if maxInflight <= 0 {
		maxInflight = 1
	}
	limit := rate.Limit(cfg.EventsPerSecond)
	if cfg.EventsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.EventBurst
	if burst <= 0 {
		burst = 1
	}

	return &Session{
		id:             uuid.NewString(),
		userID:         userID,
		conn:           conn,
		send:           make(chan models.Message, sendBuffer),
		done:           make(chan struct{}),
		handler:        handler,
		limiter:        rate.NewLimiter(limit, burst),
		inflight:       make(chan struct{}, maxInflight),
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// ID returns the unique connection id.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the authenticated identity that owns the session.
func (s *Session) UserID() models.UserID {
	return s.userID
}

// Send enqueues msg for the write pump. It never blocks.
func (s *Session) Send(msg models.Message) error {
	select {
	case <-s.done:
		return presence.ErrConnClosed
	default:
	}

	select {
	case s.send <- msg:
		return nil
	default:
		return presence.ErrSendBufferFull
	}
}

// Close stops the session. Messages already queued are flushed before the
// close frame. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed once the session has been asked to stop.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// run serves the session until the peer goes away or Close is called.
func (s *Session) run(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()

	s.readPump(ctx)
	s.Close()
	s.handlers.Wait()
	<-writerDone
}

// readPump pumps frames from the connection to the event handler.
func (s *Session) readPump(ctx context.Context) {
	if s.maxMessageSize > 0 {
		s.conn.SetReadLimit(s.maxMessageSize)
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Ctx(ctx).Warn().Err(err).Str("conn_id", s.id).Msg("unexpected websocket close error")
			}
			return
		}

		if !s.limiter.Allow() {
			metrics.RecordEvent("unknown", presence.OutcomeRateLimited, 0)
			_ = s.Send(presence.ErrorMessage(peekType(raw), "rate limit exceeded"))
			continue
		}

		select {
		case s.inflight <- struct{}{}:
		case <-s.done:
			return
		}

		s.handlers.Add(1)
		go func(raw []byte) {
			defer func() {
				<-s.inflight
				s.handlers.Done()
			}()

			reply := s.handler.Handle(ctx, s.userID, raw)
			if err := s.Send(reply); err != nil {
				logging.Ctx(ctx).Debug().Err(err).
					Str("conn_id", s.id).
					Str("reply", reply.Type).
					Msg("Reply dropped")
			}
		}(raw)
	}
}

// writePump pumps queued messages to the connection and keeps it alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				logging.Debug().Err(err).Str("conn_id", s.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.flush()
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued without waiting for more.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error().Err(err).Str("type", msg.Type).Msg("failed to encode websocket message")
		return nil
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// peekType reads only the envelope type, for scoping a rejection.
func peekType(raw []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Type
}
