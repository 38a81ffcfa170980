// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/store"
)

// StateCache stores last-known location and route progress in the
// ephemeral store. Every call is bounded by the store timeout.
type StateCache struct {
	store            store.Store
	locationTTL      time.Duration
	routeProgressTTL time.Duration
	timeout          time.Duration
}

// NewStateCache wraps st with the configured TTLs.
func NewStateCache(st store.Store, opts Options) *StateCache {
	opts = opts.withDefaults()
	return &StateCache{
		store:            st,
		locationTTL:      opts.LocationTTL,
		routeProgressTTL: opts.RouteProgressTTL,
		timeout:          opts.StoreTimeout,
	}
}

// PutLocation caches the sender's latest location under location:{id}.
func (c *StateCache) PutLocation(ctx context.Context, loc models.CachedLocation) error {
	return c.put(ctx, store.LocationKey(loc.UserID), loc, c.locationTTL)
}

// GetLocation returns the cached location of id, if any.
func (c *StateCache) GetLocation(ctx context.Context, id models.UserID) (models.CachedLocation, bool, error) {
	var loc models.CachedLocation
	ok, err := c.get(ctx, store.LocationKey(id), &loc)
	return loc, ok, err
}

// PutRouteProgress caches progress under route_progress:{routeId}:{id}.
func (c *StateCache) PutRouteProgress(ctx context.Context, progress models.RouteProgressUpdated) error {
	return c.put(ctx, store.RouteProgressKey(progress.RouteID, progress.UserID), progress, c.routeProgressTTL)
}

// GetRouteProgress returns the cached progress of id along routeID, if any.
func (c *StateCache) GetRouteProgress(ctx context.Context, routeID string, id models.UserID) (models.RouteProgressUpdated, bool, error) {
	var progress models.RouteProgressUpdated
	ok, err := c.get(ctx, store.RouteProgressKey(routeID, id), &progress)
	return progress, ok, err
}

func (c *StateCache) put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.store.Put(ctx, key, data, ttl)
}

func (c *StateCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
