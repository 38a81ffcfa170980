// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

// Coordinate fields are pointers so that a missing value fails `required`
// instead of silently decoding as 0,0.

// Location is a bare coordinate pair.
type Location struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// LocationUpdate is the inbound `location:update` payload. Timestamp is the
// client clock in Unix milliseconds and is optional.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Heading   *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lte=360"`
	Speed     *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// RouteProgressUpdate is the inbound `route:progress` payload.
type RouteProgressUpdate struct {
	RouteID                string   `json:"routeId" validate:"required"`
	Progress               *float64 `json:"progress" validate:"required,gte=0,lte=100"`
	CurrentLocation        Location `json:"currentLocation" validate:"required"`
	EstimatedTimeRemaining *float64 `json:"estimatedTimeRemaining,omitempty" validate:"omitempty,gte=0"`
}

// ETAShare is the inbound `eta:share` payload. Recipients are taken verbatim
// from the payload.
type ETAShare struct {
	RouteID          string   `json:"routeId" validate:"required"`
	RecipientIDs     []UserID `json:"recipientIds" validate:"required,min=1,dive,required"`
	EstimatedArrival string   `json:"estimatedArrival" validate:"required"`
	CurrentLocation  Location `json:"currentLocation" validate:"required"`
}

// NotificationSend is the inbound `notification:send` payload. An omitted or
// empty RecipientIDs resolves to the sender's accepted friends.
type NotificationSend struct {
	Type         string                 `json:"type" validate:"required,max=64"`
	Title        string                 `json:"title" validate:"required,max=256"`
	Message      string                 `json:"message" validate:"required,max=4096"`
	Data         map[string]interface{} `json:"data,omitempty"`
	RecipientIDs []UserID               `json:"recipientIds,omitempty" validate:"omitempty,dive,required"`
}

// LocationSnapshotRequest is the inbound `location:snapshot` payload. It carries no fields.
type LocationSnapshotRequest struct{}
