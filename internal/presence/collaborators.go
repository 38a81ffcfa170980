// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/models"
)

// SocialGraph resolves a user's ACCEPTED friends, already normalized to
// "the other side" of each relation and with BLOCKED pairs removed.
type SocialGraph interface {
	FriendsOf(ctx context.Context, id models.UserID) ([]models.UserID, error)
}

// RouteShares resolves the explicit share list of a route owned by sender.
// A route sender does not own resolves to no recipients.
type RouteShares interface {
	ShareRecipients(ctx context.Context, sender models.UserID, routeID string) ([]models.UserID, error)
}

// OfflineDelivery accepts notifications for recipients without a live
// connection. Delivery beyond the hand-off is not this package's concern.
type OfflineDelivery interface {
	DeliverOffline(ctx context.Context, recipients []models.UserID, notification models.NotificationPush) error
}

// LastSeenRecorder records when a user was last connected.
type LastSeenRecorder interface {
	MarkLastSeen(ctx context.Context, id models.UserID, at time.Time) error
}

// Options tunes the fan-out layer.
type Options struct {
	LocationTTL      time.Duration
	RouteProgressTTL time.Duration
	LookupTimeout    time.Duration // friend, route-share and offline hand-off calls
	StoreTimeout     time.Duration
	LastSeenTimeout  time.Duration
	Now              func() time.Time
}

// OptionsFromConfig maps presence configuration to Options.
func OptionsFromConfig(cfg *config.PresenceConfig) Options {
	return Options{
		LocationTTL:      cfg.LocationTTL,
		RouteProgressTTL: cfg.RouteProgressTTL,
		LookupTimeout:    cfg.LookupTimeout,
		StoreTimeout:     cfg.StoreTimeout,
		LastSeenTimeout:  cfg.LastSeenTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.LocationTTL <= 0 {
		o.LocationTTL = 300 * time.Second
	}
	if o.RouteProgressTTL <= 0 {
		o.RouteProgressTTL = 3600 * time.Second
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = 3 * time.Second
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = time.Second
	}
	if o.LastSeenTimeout <= 0 {
		o.LastSeenTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
