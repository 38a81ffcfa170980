// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/store"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

// fakeConn records every message sent to it.
type fakeConn struct {
	id      string
	mu      sync.Mutex
	msgs    []models.Message
	sendErr error
	closed  bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msg models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *fakeConn) messagesOfType(t string) []models.Message {
	var out []models.Message
	for _, m := range c.messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// fakeGraph serves friend lists from a map.
type fakeGraph struct {
	mu      sync.Mutex
	friends map[models.UserID][]models.UserID
	err     error
	delay   time.Duration
	calls   int
}

func (g *fakeGraph) FriendsOf(ctx context.Context, id models.UserID) ([]models.UserID, error) {
	g.mu.Lock()
	g.calls++
	delay, err, friends := g.delay, g.err, g.friends[id]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return friends, nil
}

func (g *fakeGraph) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeRoutes serves route share lists from a map.
type fakeRoutes struct {
	owners map[string]models.UserID
	shares map[string][]models.UserID
	err    error
}

func (r *fakeRoutes) share(routeID string, owner models.UserID, recipients ...models.UserID) {
	r.owners[routeID] = owner
	r.shares[routeID] = recipients
}

func (r *fakeRoutes) ShareRecipients(_ context.Context, sender models.UserID, routeID string) ([]models.UserID, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.owners[routeID] != sender {
		return nil, nil
	}
	return r.shares[routeID], nil
}

// offlineCall is one recorded hand-off.
type offlineCall struct {
	recipients   []models.UserID
	notification models.NotificationPush
}

type fakeOffline struct {
	mu    sync.Mutex
	calls []offlineCall
	err   error
}

func (o *fakeOffline) DeliverOffline(_ context.Context, recipients []models.UserID, n models.NotificationPush) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, offlineCall{recipients: recipients, notification: n})
	return o.err
}

func (o *fakeOffline) handoffs() []offlineCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]offlineCall(nil), o.calls...)
}

type lastSeenCall struct {
	id models.UserID
	at time.Time
}

type fakeLastSeen struct {
	mu    sync.Mutex
	calls []lastSeenCall
	block chan struct{}
	err   error
}

func (l *fakeLastSeen) MarkLastSeen(ctx context.Context, id models.UserID, at time.Time) error {
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, lastSeenCall{id: id, at: at})
	return l.err
}

func (l *fakeLastSeen) recorded() []lastSeenCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]lastSeenCall(nil), l.calls...)
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("store unavailable")
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store unavailable")
}

func (failingStore) Close() error { return nil }

// harness wires every component against fakes.
type harness struct {
	registry    *Registry
	graph       *fakeGraph
	routes      *fakeRoutes
	offline     *fakeOffline
	lastSeen    *fakeLastSeen
	store       store.Store
	broadcaster *Broadcaster
	relay       *Relay
	dispatcher  *Dispatcher
	reaper      *Reaper
}

func testOptions() Options {
	return Options{
		LocationTTL:      300 * time.Second,
		RouteProgressTTL: 3600 * time.Second,
		LookupTimeout:    200 * time.Millisecond,
		StoreTimeout:     200 * time.Millisecond,
		LastSeenTimeout:  time.Second,
		Now:              func() time.Time { return testNow },
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, store.NewMemoryStore(0))
}

func newHarnessWithStore(t *testing.T, st store.Store) *harness {
	t.Helper()
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{
		registry: NewRegistry(),
		graph:    &fakeGraph{friends: map[models.UserID][]models.UserID{}},
		routes:   &fakeRoutes{owners: map[string]models.UserID{}, shares: map[string][]models.UserID{}},
		offline:  &fakeOffline{},
		lastSeen: &fakeLastSeen{},
		store:    st,
	}
	opts := testOptions()
	cache := NewStateCache(st, opts)
	h.broadcaster = NewBroadcaster(h.registry, h.graph, h.routes, cache, opts)
	h.relay = NewRelay(h.registry, h.graph, h.offline, opts)
	h.dispatcher = NewDispatcher(h.broadcaster, h.relay)
	h.reaper = NewReaper(h.registry, h.lastSeen, opts)
	return h
}

// connect registers a fresh fake connection for id.
func (h *harness) connect(id models.UserID) *fakeConn {
	conn := newFakeConn(string(id) + "-conn")
	h.registry.Register(id, conn)
	return conn
}

func (h *harness) befriend(a, b models.UserID) {
	h.graph.mu.Lock()
	defer h.graph.mu.Unlock()
	h.graph.friends[a] = append(h.graph.friends[a], b)
	h.graph.friends[b] = append(h.graph.friends[b], a)
}
