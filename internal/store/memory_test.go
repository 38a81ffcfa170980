// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "location:u1", []byte(`{"latitude":1}`), time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	value, ok, err := s.Get(ctx, "location:u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(value) != `{"latitude":1}` {
		t.Errorf("Get() = %s", value)
	}

	_, ok, err = s.Get(ctx, "location:u2")
	if err != nil || ok {
		t.Errorf("Get(missing) = ok %v, err %v; want absent without error", ok, err)
	}
}

func TestMemoryStore_ExpiredEntryIsAbsent(t *testing.T) {
	clock := newFakeClock()
	s := newMemoryStore(0, clock.Now)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	clock.Advance(299 * time.Second)
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("entry should still be readable before its TTL")
	}

	clock.Advance(time.Second)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("entry should be unreadable once its TTL elapsed")
	}

	// Still physically present until the janitor runs.
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 before cleanup", s.Len())
	}
	s.cleanup()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after cleanup", s.Len())
	}
}

func TestMemoryStore_OverwriteRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	s := newMemoryStore(0, clock.Now)
	defer s.Close()
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("old"), 10*time.Second)
	clock.Advance(8 * time.Second)
	_ = s.Put(ctx, "k", []byte("new"), 10*time.Second)
	clock.Advance(8 * time.Second)

	value, ok, _ := s.Get(ctx, "k")
	if !ok || string(value) != "new" {
		t.Errorf("Get() = %q, %v; want new, true", value, ok)
	}
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	buf := []byte("abc")
	_ = s.Put(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	value, _, _ := s.Get(ctx, "k")
	if string(value) != "abc" {
		t.Errorf("stored value mutated through caller slice: %q", value)
	}
}

func TestMemoryStore_NonPositiveTTL(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("v"), time.Minute)
	_ = s.Put(ctx, "k", []byte("v"), 0)

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("zero TTL should leave the key absent")
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("Put() after Close error = %v, want ErrClosed", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
}

func TestMemoryStore_JanitorSweeps(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("v"), 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Error("janitor did not remove the expired entry")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("location:u%d", n%5)
			for j := 0; j < 100; j++ {
				_ = s.Put(ctx, key, []byte("v"), time.Minute)
				_, _, _ = s.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestKeys(t *testing.T) {
	if got := LocationKey("u1"); got != "location:u1" {
		t.Errorf("LocationKey() = %q", got)
	}
	if got := RouteProgressKey("r9", "u1"); got != "route_progress:r9:u1" {
		t.Errorf("RouteProgressKey() = %q", got)
	}
}
