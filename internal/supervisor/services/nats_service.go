// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package services

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/waypoint/internal/logging"
)

// EmbeddedBroker is satisfied by *delivery.EmbeddedServer.
type EmbeddedBroker interface {
	ClientURL() string
	IsRunning() bool
}

// EmbeddedNATSService watches an in-process NATS server.
//
// The broker is started before the tree, since the delivery publisher must
// connect to it during wiring, and it is stopped after the tree, once pending
// last-seen publishes from closing sessions have drained. An embedded server
// that dies cannot be restarted in place, so a failed health check ends the
// service without a restart and delivery degrades through its circuit breaker.
type EmbeddedNATSService struct {
	broker        EmbeddedBroker
	checkInterval time.Duration
	name          string
}

// NewEmbeddedNATSService wraps broker with a 5s health check.
func NewEmbeddedNATSService(broker EmbeddedBroker) *EmbeddedNATSService {
	return &EmbeddedNATSService{
		broker:        broker,
		checkInterval: 5 * time.Second,
		name:          "embedded-nats",
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if !s.broker.IsRunning() {
				logging.Error().
					Str("url", s.broker.ClientURL()).
					Msg("Embedded NATS is no longer running; offline delivery is unavailable")
				return suture.ErrDoNotRestart
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
