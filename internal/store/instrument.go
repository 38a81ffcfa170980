// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package store

import (
	"context"
	"time"

	"github.com/tomtom215/waypoint/internal/metrics"
)

// instrumented records every operation in waypoint_store_operations_total.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that each Put and Get is counted by result.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := i.Store.Put(ctx, key, value, ttl)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordStoreOp(i.backend, "put", result)
	return err
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := i.Store.Get(ctx, key)
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case !ok:
		result = "miss"
	}
	metrics.RecordStoreOp(i.backend, "get", result)
	return value, ok, err
}
