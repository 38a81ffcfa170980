// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package models defines the wire and domain types shared by the presence layer:
// identities, inbound event payloads, outbound event payloads and the
// friendship relation read from the surrounding application.
package models

// UserID is the stable opaque identifier of an authenticated end user.
type UserID string

// String implements fmt.Stringer.
func (id UserID) String() string {
	return string(id)
}

// Identity is the resolved user attached to a connection after authentication.
// Username is denormalized for logging only.
type Identity struct {
	UserID   UserID `json:"id"`
	Username string `json:"username"`
	Active   bool   `json:"isActive"`
}

// FriendshipStatus is the state of a friendship row.
type FriendshipStatus string

// Friendship statuses. Only ACCEPTED authorizes fan-out.
const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipBlocked  FriendshipStatus = "BLOCKED"
)

// Friendship is a single relation row between two users. The row is
// asymmetric: either side may appear as requester or addressee.
type Friendship struct {
	RequesterID UserID           `json:"requesterId"`
	AddresseeID UserID           `json:"addresseeId"`
	Status      FriendshipStatus `json:"status"`
}

// Other returns the side of the relation that is not viewer, and false when
// viewer is not part of the row at all.
func (f Friendship) Other(viewer UserID) (UserID, bool) {
	switch viewer {
	case f.RequesterID:
		return f.AddresseeID, true
	case f.AddresseeID:
		return f.RequesterID, true
	default:
		return "", false
	}
}
