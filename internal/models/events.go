// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Inbound event types.
const (
	EventLocationUpdate   = "location:update"
	EventLocationSnapshot = "location:snapshot"
	EventRouteProgress    = "route:progress"
	EventETAShare         = "eta:share"
	EventNotificationSend = "notification:send"
)

// Outbound event types.
const (
	EventLocationUpdateAck     = "location:update:ack"
	EventRouteProgressAck      = "route:progress:ack"
	EventETAShareAck           = "eta:share:ack"
	EventNotificationSendAck   = "notification:send:ack"
	EventFriendLocationUpdated = "friend:location:updated"
	EventRouteProgressUpdated  = "route:progress:updated"
	EventETAReceived           = "eta:received"
	EventNotificationPush      = "notification:push"
	EventError                 = "error"
)

// AckType returns the acknowledgement event type for an inbound event type.
// The snapshot request is answered with its own type.
func AckType(eventType string) string {
	if eventType == EventLocationSnapshot {
		return EventLocationSnapshot
	}
	return eventType + ":ack"
}

// Message is the envelope for every frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundMessage is the envelope for every frame received from a client.
// Data is decoded lazily once the event type is known.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Ack acknowledges an inbound event to its sender.
type Ack struct {
	Status    string `json:"status"`
	Delivered int    `json:"delivered"`
}

// NewAck returns a success acknowledgement.
func NewAck(delivered int) Ack {
	return Ack{Status: "success", Delivered: delivered}
}

// ErrorPayload is the body of a scoped `error` event.
type ErrorPayload struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// FriendLocationUpdated is relayed to each authorized online friend.
type FriendLocationUpdated struct {
	UserID    UserID         `json:"userId"`
	Location  LocationUpdate `json:"location"`
	Timestamp time.Time      `json:"timestamp"`
}

// RouteProgressUpdated is relayed to each online share recipient of a route.
type RouteProgressUpdated struct {
	UserID          UserID    `json:"userId"`
	RouteID         string    `json:"routeId"`
	Progress        float64   `json:"progress"`
	CurrentLocation Location  `json:"currentLocation"`
	ETA             *float64  `json:"eta"`
	Timestamp       time.Time `json:"timestamp"`
}

// ETAReceived is relayed to each online ETA recipient.
type ETAReceived struct {
	FromUserID       UserID    `json:"fromUserId"`
	RouteID          string    `json:"routeId"`
	EstimatedArrival string    `json:"estimatedArrival"`
	CurrentLocation  Location  `json:"currentLocation"`
	Timestamp        time.Time `json:"timestamp"`
}

// NotificationPush is relayed to each online notification recipient and is
// also the payload handed to offline delivery.
type NotificationPush struct {
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	FromUserID UserID                 `json:"fromUserId"`
	Timestamp  time.Time              `json:"timestamp"`
}

// CachedLocation is one entry of a location snapshot.
type CachedLocation struct {
	UserID    UserID         `json:"userId"`
	Location  LocationUpdate `json:"location"`
	Timestamp time.Time      `json:"timestamp"`
}

// LocationSnapshot answers a `location:snapshot` request.
type LocationSnapshot struct {
	Locations []CachedLocation `json:"locations"`
}
