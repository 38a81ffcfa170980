// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

// maxConcurrentSends bounds the goroutines one fan-out may run at a time.
const maxConcurrentSends = 64

// fanoutResult summarizes one fan-out.
type fanoutResult struct {
	delivered int
	failed    int
	offline   []models.UserID
}

// fanout relays msg to every recipient that is currently registered.
// Sends are issued concurrently and never fail the group; the join only
// collects counts.
func fanout(ctx context.Context, registry *Registry, event string, recipients []models.UserID, msg models.Message) fanoutResult {
	var (
		g         errgroup.Group
		delivered atomic.Int32
		failed    atomic.Int32
		result    fanoutResult
	)
	g.SetLimit(maxConcurrentSends)

	for _, id := range recipients {
		conn, ok := registry.Lookup(id)
		if !ok {
			result.offline = append(result.offline, id)
			continue
		}

		g.Go(func() error {
			if err := conn.Send(msg); err != nil {
				failed.Add(1)
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("event", event).
					Str("recipient", id.String()).
					Str("conn_id", conn.ID()).
					Msg("Relay to recipient failed")
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result.delivered = int(delivered.Load())
	result.failed = int(failed.Load())
	metrics.RecordFanout(event, result.delivered, len(result.offline), result.failed)
	return result
}

// recipientSet de-duplicates ids, drops blanks and removes the sender.
func recipientSet(sender models.UserID, ids []models.UserID) []models.UserID {
	seen := make(map[models.UserID]struct{}, len(ids))
	out := make([]models.UserID, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == sender {
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
