// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package presence implements the real-time fan-out layer.
//
// # Components
//
//   - Registry: identity -> live connection, one handle per identity. The last
//     registration wins and Unregister only removes the entry it was given.
//   - Broadcaster: location, route progress and ETA events. Validates the
//     payload, writes last-known state to the StateCache, resolves authorized
//     recipients and relays to the ones that are online.
//   - Relay: ad-hoc notifications. Online recipients get the push directly;
//     offline recipients are handed to OfflineDelivery once per notification.
//   - Reaper: runs exactly once per connection teardown, unregisters the
//     handle and publishes last-seen without blocking the teardown.
//   - Dispatcher: decodes a client frame into the closed Event variant and
//     routes it through a single switch. Every event yields either an ack or a
//     scoped error; nothing an event does can break the connection.
//
// # Failure policy
//
// Collaborator lookups (friends, route shares) and store calls are bounded by
// timeouts and fail closed. A failed lookup means zero recipients. A failed
// store write is logged and ignored, since fan-out is driven by the
// in-memory payload. A failed relay to one recipient is logged and does not
// affect the others.
//
// # Usage
//
//	registry := presence.NewRegistry()
//	cache := presence.NewStateCache(st, opts)
//	broadcaster := presence.NewBroadcaster(registry, dir, dir, cache, opts)
//	relay := presence.NewRelay(registry, dir, publisher, opts)
//	dispatcher := presence.NewDispatcher(broadcaster, relay)
//	reaper := presence.NewReaper(registry, publisher, opts)
package presence
