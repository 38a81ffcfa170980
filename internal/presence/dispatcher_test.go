// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/store"
)

func TestDispatcher_Acks(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantType string
		want     int
	}{
		{
			name:     "location update",
			frame:    `{"type":"location:update","data":{"latitude":37.77,"longitude":-122.41}}`,
			wantType: models.EventLocationUpdateAck,
			want:     1,
		},
		{
			name:     "route progress",
			frame:    `{"type":"route:progress","data":{"routeId":"r1","progress":50,"currentLocation":{"latitude":1,"longitude":2}}}`,
			wantType: models.EventRouteProgressAck,
			want:     1,
		},
		{
			name:     "eta share",
			frame:    `{"type":"eta:share","data":{"routeId":"r1","recipientIds":["bob"],"estimatedArrival":"18:00","currentLocation":{"latitude":1,"longitude":2}}}`,
			wantType: models.EventETAShareAck,
			want:     1,
		},
		{
			name:     "notification",
			frame:    `{"type":"notification:send","data":{"type":"ping","title":"Hi","message":"hello"}}`,
			wantType: models.EventNotificationSendAck,
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.befriend("alice", "bob")
			h.routes.share("r1", "alice", "bob")
			h.connect("bob")

			reply := h.dispatcher.Handle(context.Background(), "alice", []byte(tt.frame))

			if reply.Type != tt.wantType {
				t.Fatalf("reply type = %q, want %q (data %+v)", reply.Type, tt.wantType, reply.Data)
			}
			ack, ok := reply.Data.(models.Ack)
			if !ok {
				t.Fatalf("reply data = %T, want models.Ack", reply.Data)
			}
			if ack.Status != "success" || ack.Delivered != tt.want {
				t.Errorf("ack = %+v, want delivered %d", ack, tt.want)
			}
		})
	}
}

func TestDispatcher_LocationScenario(t *testing.T) {
	h := newHarness(t)
	h.befriend("alice", "bob")
	h.befriend("alice", "carol")
	bob := h.connect("bob")

	reply := h.dispatcher.Handle(context.Background(), "alice",
		[]byte(`{"type":"location:update","data":{"latitude":37.77,"longitude":-122.41}}`))

	if reply.Type != models.EventLocationUpdateAck || reply.Data.(models.Ack).Delivered != 1 {
		t.Fatalf("reply = %+v", reply)
	}
	got := bob.messagesOfType(models.EventFriendLocationUpdated)
	if len(got) != 1 || got[0].Data.(models.FriendLocationUpdated).UserID != "alice" {
		t.Errorf("bob received %+v", got)
	}
	if h.registry.IsOnline("carol") {
		t.Error("carol should be offline")
	}
}

func TestDispatcher_ScopedErrors(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantEvent string
		wantIn    string
	}{
		{
			name:      "latitude out of range",
			frame:     `{"type":"location:update","data":{"latitude":91,"longitude":0}}`,
			wantEvent: models.EventLocationUpdate,
			wantIn:    "latitude",
		},
		{
			name:      "eta without recipients",
			frame:     `{"type":"eta:share","data":{"routeId":"r1","recipientIds":[],"estimatedArrival":"x","currentLocation":{"latitude":1,"longitude":2}}}`,
			wantEvent: models.EventETAShare,
			wantIn:    "recipientIds",
		},
		{
			name:      "unknown event",
			frame:     `{"type":"teleport","data":{}}`,
			wantEvent: "teleport",
			wantIn:    "unknown event type",
		},
		{
			name:      "bad data",
			frame:     `{"type":"route:progress","data":"nope"}`,
			wantEvent: models.EventRouteProgress,
			wantIn:    "malformed payload",
		},
		{
			name:      "not json",
			frame:     `{{{`,
			wantEvent: "",
			wantIn:    "malformed payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			reply := h.dispatcher.Handle(context.Background(), "alice", []byte(tt.frame))

			if reply.Type != models.EventError {
				t.Fatalf("reply type = %q, want error", reply.Type)
			}
			payload := reply.Data.(models.ErrorPayload)
			if payload.Event != tt.wantEvent {
				t.Errorf("error scope = %q, want %q", payload.Event, tt.wantEvent)
			}
			if !strings.Contains(payload.Message, tt.wantIn) {
				t.Errorf("error message = %q, want it to mention %q", payload.Message, tt.wantIn)
			}
		})
	}
}

func TestDispatcher_Snapshot(t *testing.T) {
	h := newHarness(t)
	h.befriend("alice", "bob")
	h.dispatcher.Handle(context.Background(), "bob",
		[]byte(`{"type":"location:update","data":{"latitude":1,"longitude":2}}`))

	reply := h.dispatcher.Handle(context.Background(), "alice", []byte(`{"type":"location:snapshot"}`))

	if reply.Type != models.EventLocationSnapshot {
		t.Fatalf("reply type = %q", reply.Type)
	}
	snapshot := reply.Data.(models.LocationSnapshot)
	if len(snapshot.Locations) != 1 || snapshot.Locations[0].UserID != "bob" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestDispatcher_CanceledContextStillRelays(t *testing.T) {
	h := newHarness(t)
	h.befriend("alice", "bob")
	bob := h.connect("bob")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply := h.dispatcher.Handle(ctx, "alice",
		[]byte(`{"type":"location:update","data":{"latitude":1,"longitude":2}}`))

	if reply.Type != models.EventLocationUpdateAck {
		t.Fatalf("reply = %+v", reply)
	}
	if len(bob.messages()) != 1 {
		t.Error("sender disconnect must not retract fan-out")
	}
}

type panickingGraph struct{}

func (panickingGraph) FriendsOf(context.Context, models.UserID) ([]models.UserID, error) {
	panic("graph exploded")
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	h := newHarness(t)
	opts := testOptions()
	st := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = st.Close() })
	broadcaster := NewBroadcaster(h.registry, panickingGraph{}, h.routes, NewStateCache(st, opts), opts)
	dispatcher := NewDispatcher(broadcaster, h.relay)

	reply := dispatcher.Handle(context.Background(), "alice",
		[]byte(`{"type":"location:update","data":{"latitude":1,"longitude":2}}`))

	if reply.Type != models.EventError {
		t.Fatalf("reply type = %q, want error", reply.Type)
	}
	payload := reply.Data.(models.ErrorPayload)
	if payload.Event != models.EventLocationUpdate || payload.Message != "internal error" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestErrorMessage(t *testing.T) {
	msg := ErrorMessage("", "rate limit exceeded")
	if msg.Type != models.EventError {
		t.Errorf("type = %q", msg.Type)
	}
	if p := msg.Data.(models.ErrorPayload); p.Event != "" || p.Message != "rate limit exceeded" {
		t.Errorf("payload = %+v", p)
	}
}
