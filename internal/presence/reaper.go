// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"sync"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// Reaper cleans up after connection teardown.
type Reaper struct {
	registry *Registry
	lastSeen LastSeenRecorder
	opts     Options
	wg       sync.WaitGroup
}

// NewReaper wires a reaper.
func NewReaper(registry *Registry, lastSeen LastSeenRecorder, opts Options) *Reaper {
	return &Reaper{
		registry: registry,
		lastSeen: lastSeen,
		opts:     opts.withDefaults(),
	}
}

// Teardown returns the cleanup for one connection lifecycle. The returned
// func may be called any number of times from any goroutine; it acts once.
//
//	reap := reaper.Teardown(identity.UserID, session)
//	defer reap()
func (r *Reaper) Teardown(id models.UserID, conn Conn) func() {
	var once sync.Once
	return func() {
		once.Do(func() { r.reap(id, conn) })
	}
}

// reap unregisters conn and, only if it was still the registered handle,
// publishes last-seen in the background.
func (r *Reaper) reap(id models.UserID, conn Conn) {
	if !r.registry.Unregister(id, conn) {
		logging.Debug().
			Str("user_id", id.String()).
			Str("conn_id", conn.ID()).
			Msg("Stale disconnect, newer session keeps the registration")
		return
	}

	at := r.opts.Now()
	logging.Info().
		Str("user_id", id.String()).
		Str("conn_id", conn.ID()).
		Msg("Connection unregistered")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.LastSeenTimeout)
		defer cancel()

		if err := r.lastSeen.MarkLastSeen(ctx, id, at); err != nil {
			logging.Warn().Err(err).Str("user_id", id.String()).Msg("Last-seen update failed")
		}
	}()
}

// Wait blocks until every in-flight last-seen update has finished.
func (r *Reaper) Wait() {
	r.wg.Wait()
}
