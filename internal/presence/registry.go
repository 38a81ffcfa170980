// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

var (
	// ErrConnClosed is returned by Conn.Send after the connection closed.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned by Conn.Send when the outbound queue is full.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a live connection handle. Send must not block on the network; it
// enqueues and returns an error if the connection is closed or backed up.
type Conn interface {
	ID() string
	Send(msg models.Message) error
	Close()
}

// ConnectionRecord is one registered identity.
type ConnectionRecord struct {
	Identity    models.UserID
	Conn        Conn
	ConnectedAt time.Time
}

// Registry maps each online identity to exactly one connection handle.
// It is constructed once per process and passed to every component.
type Registry struct {
	mu      sync.RWMutex
	records map[models.UserID]ConnectionRecord
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[models.UserID]ConnectionRecord),
		now:     time.Now,
	}
}

// Register makes conn the handle for id, replacing any previous handle.
// The replaced handle, if any and different from conn, is returned so the
// caller can decide what to do with the older session.
func (r *Registry) Register(id models.UserID, conn Conn) (displaced Conn) {
	r.mu.Lock()
	prev, existed := r.records[id]
	r.records[id] = ConnectionRecord{Identity: id, Conn: conn, ConnectedAt: r.now()}
	count := len(r.records)
	r.mu.Unlock()

	metrics.ActiveConnections.Set(float64(count))

	if existed && prev.Conn != conn {
		metrics.DisplacedSessions.Inc()
		return prev.Conn
	}
	return nil
}

// Unregister removes id only while it still points at conn. It reports
// whether an entry was removed; false means a newer registration owns id.
func (r *Registry) Unregister(id models.UserID, conn Conn) bool {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok || rec.Conn != conn {
		r.mu.Unlock()
		return false
	}
	delete(r.records, id)
	count := len(r.records)
	r.mu.Unlock()

	metrics.ActiveConnections.Set(float64(count))
	return true
}

// Lookup returns the handle registered for id.
func (r *Registry) Lookup(id models.UserID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	return rec.Conn, true
}

// Record returns the full registration for id.
func (r *Registry) Record(id models.UserID) (ConnectionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	return rec, ok
}

// IsOnline reports whether id has a registered handle.
func (r *Registry) IsOnline(id models.UserID) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Count returns the number of registered identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Conns returns a snapshot of every registered handle.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.records))
	for _, rec := range r.records {
		conns = append(conns, rec.Conn)
	}
	return conns
}
