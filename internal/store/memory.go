// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package store

import (
	"context"
	"sync"
	"time"
)

// entry is a cached value with its absolute expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are treated as absent
// on read and reclaimed by a background janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	closed  bool

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore creates a MemoryStore whose janitor sweeps expired entries
// every cleanupInterval. A zero interval disables the janitor.
//
//	s := store.NewMemoryStore(time.Minute)
//	defer s.Close()
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return newMemoryStore(cleanupInterval, time.Now)
}

func newMemoryStore(cleanupInterval time.Duration, now func() time.Time) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		now:     now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	} else {
		close(s.done)
	}

	return s
}

// Put stores value under key until ttl elapses. A non-positive ttl is a no-op
// because the entry would be absent immediately.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		delete(s.entries, key)
		return nil
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	s.entries[key] = entry{value: buf, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the value under key if present and not expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}

	buf := make([]byte, len(e.value))
	copy(buf, e.value)
	return buf, true, nil
}

// Len returns the number of physically present entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor and drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.entries = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

// cleanup removes every expired entry.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
