// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// routeShares is the body of GET /internal/routes/{routeId}/shares.
type routeShares struct {
	RouteID    string          `json:"routeId"`
	OwnerID    models.UserID   `json:"ownerId"`
	SharedWith []models.UserID `json:"sharedWith"`
}

// LookupIdentity resolves a user. An unknown user is (zero, false, nil).
func (c *Client) LookupIdentity(ctx context.Context, id models.UserID) (models.Identity, bool, error) {
	body, err := c.get(ctx, "identity", userPath(id.String(), ""))
	if errors.Is(err, ErrNotFound) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, err
	}

	var identity models.Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return models.Identity{}, false, fmt.Errorf("decode identity: %w", err)
	}
	if identity.UserID == "" {
		identity.UserID = id
	}
	return identity, true, nil
}

// FriendsOf returns the users holding an ACCEPTED friendship with id and no
// BLOCKED relation in either direction. An unknown user has no friends.
func (c *Client) FriendsOf(ctx context.Context, id models.UserID) ([]models.UserID, error) {
	body, err := c.get(ctx, "friends", userPath(id.String(), "/friendships"))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []models.Friendship
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode friendships: %w", err)
	}
	return NormalizeFriends(id, rows), nil
}

// ShareRecipients returns the explicit share list of a route owned by
// sender. An unknown route, or one owned by someone else, is shared with
// nobody.
func (c *Client) ShareRecipients(ctx context.Context, sender models.UserID, routeID string) ([]models.UserID, error) {
	body, err := c.get(ctx, "route_shares", routePath(routeID, "/shares"))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var shares routeShares
	if err := json.Unmarshal(body, &shares); err != nil {
		return nil, fmt.Errorf("decode route shares: %w", err)
	}
	if shares.OwnerID != sender {
		logging.Ctx(ctx).Warn().
			Str("route_id", routeID).
			Str("sender", sender.String()).
			Msg("Route progress from a user who does not own the route")
		return nil, nil
	}
	return dedupe(shares.SharedWith), nil
}

// NormalizeFriends resolves each row to the side that is not viewer and keeps
// the ACCEPTED ones. A BLOCKED row for a pair suppresses that pair even when
// another row says ACCEPTED. Rows not involving viewer are ignored.
func NormalizeFriends(viewer models.UserID, rows []models.Friendship) []models.UserID {
	accepted := make(map[models.UserID]struct{})
	blocked := make(map[models.UserID]struct{})

	for _, row := range rows {
		other, ok := row.Other(viewer)
		if !ok || other == "" || other == viewer {
			continue
		}
		switch row.Status {
		case models.FriendshipAccepted:
			accepted[other] = struct{}{}
		case models.FriendshipBlocked:
			blocked[other] = struct{}{}
		}
	}

	friends := make([]models.UserID, 0, len(accepted))
	for id := range accepted {
		if _, isBlocked := blocked[id]; !isBlocked {
			friends = append(friends, id)
		}
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i] < friends[j] })
	return friends
}

func dedupe(ids []models.UserID) []models.UserID {
	seen := make(map[models.UserID]struct{}, len(ids))
	out := make([]models.UserID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
