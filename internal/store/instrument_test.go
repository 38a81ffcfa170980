// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package store

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/metrics"
)

func TestInstrument_CountsResults(t *testing.T) {
	s := Instrument(NewMemoryStore(0), "test-instrument")
	defer s.Close()
	ctx := context.Background()

	miss := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("test-instrument", "get", "miss"))
	hit := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("test-instrument", "get", "ok"))

	_, _, _ = s.Get(ctx, "k")
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)
	_, _, _ = s.Get(ctx, "k")

	if got := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("test-instrument", "get", "miss")); got != miss+1 {
		t.Errorf("miss count = %v, want %v", got, miss+1)
	}
	if got := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("test-instrument", "get", "ok")); got != hit+1 {
		t.Errorf("hit count = %v, want %v", got, hit+1)
	}
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{"", "memory", "badger"} {
		s, err := New(ctx, config.StoreConfig{Backend: backend})
		if err != nil {
			t.Fatalf("New(%q) error = %v", backend, err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("Close(%q) error = %v", backend, err)
		}
	}

	if _, err := New(ctx, config.StoreConfig{Backend: "etcd"}); err == nil {
		t.Error("New() expected error for unknown backend")
	}
}
