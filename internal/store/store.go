// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package store provides the ephemeral, TTL-bounded key/value cache that holds
// "last known" location and route progress.
//
// Entries are never durable: every write carries a TTL and an expired entry
// is absent on read even if the backend has not yet reclaimed it. The store
// is a side cache only. Callers treat every error as non-fatal.
//
// Backends:
//   - memory: process-local map with a janitor goroutine
//   - badger: dgraph-io/badger with native entry TTL (optionally in-memory)
//   - redis: redis/go-redis SET with expiration, shared across instances
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/models"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store is a TTL-bounded byte cache.
//
// Get returns (nil, false, nil) for a missing or expired key; an error means
// the backend itself failed.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Close() error
}

// Key prefixes for the two families of ephemeral state.
const (
	locationPrefix      = "location:"
	routeProgressPrefix = "route_progress:"
)

// LocationKey returns the key holding a user's last known location.
func LocationKey(id models.UserID) string {
	return locationPrefix + string(id)
}

// RouteProgressKey returns the key holding a user's progress along a route.
func RouteProgressKey(routeID string, id models.UserID) string {
	return routeProgressPrefix + routeID + ":" + string(id)
}

// New builds the backend selected by cfg.Backend, wrapped with metrics.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return Instrument(NewMemoryStore(time.Minute), "memory"), nil
	case "badger":
		s, err := NewBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return Instrument(s, "badger"), nil
	case "redis":
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return Instrument(s, "redis"), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
