// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// Broadcaster handles location, route progress, ETA and snapshot events.
type Broadcaster struct {
	registry *Registry
	graph    SocialGraph
	routes   RouteShares
	cache    *StateCache
	opts     Options
}

// NewBroadcaster wires a broadcaster. All collaborators are required.
func NewBroadcaster(registry *Registry, graph SocialGraph, routes RouteShares, cache *StateCache, opts Options) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		graph:    graph,
		routes:   routes,
		cache:    cache,
		opts:     opts.withDefaults(),
	}
}

// HandleLocationUpdate caches the sender's location and relays it to every
// online ACCEPTED friend. It returns the number of friends reached.
// Out-of-range coordinates are rejected before any lookup or write.
func (b *Broadcaster) HandleLocationUpdate(ctx context.Context, sender models.UserID, update models.LocationUpdate) (int, error) {
	if err := validate(&update); err != nil {
		return 0, err
	}

	now := b.opts.Now()
	if err := b.cache.PutLocation(ctx, models.CachedLocation{UserID: sender, Location: update, Timestamp: now}); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event", models.EventLocationUpdate).
			Str("key", "location:"+sender.String()).
			Msg("Ephemeral store write failed")
	}

	friends := b.friendsOf(ctx, sender)

	msg := models.Message{
		Type: models.EventFriendLocationUpdated,
		Data: models.FriendLocationUpdated{UserID: sender, Location: update, Timestamp: now},
	}
	return fanout(ctx, b.registry, models.EventLocationUpdate, friends, msg).delivered, nil
}

// HandleRouteProgress caches progress along a route and relays it to the
// route's explicit share list only. Friends not on the list receive nothing.
func (b *Broadcaster) HandleRouteProgress(ctx context.Context, sender models.UserID, update models.RouteProgressUpdate) (int, error) {
	if err := validate(&update); err != nil {
		return 0, err
	}

	progress := models.RouteProgressUpdated{
		UserID:          sender,
		RouteID:         update.RouteID,
		Progress:        *update.Progress,
		CurrentLocation: update.CurrentLocation,
		ETA:             update.EstimatedTimeRemaining,
		Timestamp:       b.opts.Now(),
	}

	if err := b.cache.PutRouteProgress(ctx, progress); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event", models.EventRouteProgress).
			Str("route_id", update.RouteID).
			Msg("Ephemeral store write failed")
	}

	recipients := b.shareRecipients(ctx, sender, update.RouteID)

	msg := models.Message{Type: models.EventRouteProgressUpdated, Data: progress}
	return fanout(ctx, b.registry, models.EventRouteProgress, recipients, msg).delivered, nil
}

// HandleETAShare relays an ETA to the recipients named in the payload. No
// graph lookup is made: the sender chose the recipients explicitly.
func (b *Broadcaster) HandleETAShare(ctx context.Context, sender models.UserID, share models.ETAShare) (int, error) {
	if err := validate(&share); err != nil {
		return 0, err
	}

	recipients := recipientSet(sender, share.RecipientIDs)
	if len(recipients) == 0 {
		return 0, &ValidationError{Message: "recipientIds must name at least one user other than the sender"}
	}

	msg := models.Message{
		Type: models.EventETAReceived,
		Data: models.ETAReceived{
			FromUserID:       sender,
			RouteID:          share.RouteID,
			EstimatedArrival: share.EstimatedArrival,
			CurrentLocation:  share.CurrentLocation,
			Timestamp:        b.opts.Now(),
		},
	}
	return fanout(ctx, b.registry, models.EventETAShare, recipients, msg).delivered, nil
}

// LocationSnapshot returns the cached last-known locations of the sender's
// ACCEPTED friends. Expired or unreadable entries are omitted.
func (b *Broadcaster) LocationSnapshot(ctx context.Context, sender models.UserID) models.LocationSnapshot {
	friends := b.friendsOf(ctx, sender)

	snapshot := models.LocationSnapshot{Locations: make([]models.CachedLocation, 0, len(friends))}
	for _, friend := range friends {
		loc, ok, err := b.cache.GetLocation(ctx, friend)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("event", models.EventLocationSnapshot).
				Str("key", "location:"+friend.String()).
				Msg("Ephemeral store read failed")
			continue
		}
		if ok {
			snapshot.Locations = append(snapshot.Locations, loc)
		}
	}
	return snapshot
}

// friendsOf resolves ACCEPTED friends within the lookup timeout. Any failure
// degrades to no recipients.
func (b *Broadcaster) friendsOf(ctx context.Context, sender models.UserID) []models.UserID {
	return resolveFriends(ctx, b.graph, sender, b.opts.LookupTimeout)
}

func (b *Broadcaster) shareRecipients(ctx context.Context, sender models.UserID, routeID string) []models.UserID {
	lookupCtx, cancel := context.WithTimeout(ctx, b.opts.LookupTimeout)
	defer cancel()

	ids, err := b.routes.ShareRecipients(lookupCtx, sender, routeID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("route_id", routeID).
			Msg("Route share lookup failed, relaying to no recipients")
		return nil
	}
	return recipientSet(sender, ids)
}

func resolveFriends(ctx context.Context, graph SocialGraph, sender models.UserID, timeout time.Duration) []models.UserID {
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ids, err := graph.FriendsOf(lookupCtx, sender)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("sender", sender.String()).
			Msg("Friend lookup failed, relaying to no recipients")
		return nil
	}
	return recipientSet(sender, ids)
}
