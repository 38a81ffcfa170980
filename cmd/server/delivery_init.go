// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/delivery"
	"github.com/tomtom215/waypoint/internal/logging"
)

// deliveryStack is the publisher plus the embedded broker it may depend on.
type deliveryStack struct {
	publisher *delivery.Publisher
	embedded  *delivery.EmbeddedServer // nil unless delivery.embedded_nats
}

// initDelivery starts the embedded NATS server when configured and connects
// the publisher to it, or to delivery.nats_url otherwise.
func initDelivery(cfg *config.DeliveryConfig) (*deliveryStack, error) {
	stack := &deliveryStack{}
	url := cfg.NATSURL

	if cfg.Backend == "nats" && cfg.EmbeddedNATS {
		port := cfg.EmbeddedPort
		if port == 0 {
			port = -1
		}
		embedded, err := delivery.NewEmbeddedServer(cfg.EmbeddedHost, port)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		stack.embedded = embedded
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	publisher, err := delivery.New(cfg, url)
	if err != nil {
		stack.shutdownEmbedded()
		return nil, err
	}
	stack.publisher = publisher

	if cfg.Backend == "gochannel" {
		logging.Warn().
			Str("backend", cfg.Backend).
			Msg("In-process delivery has no external consumer; offline hand-offs and last-seen events are discarded")
	}

	logging.Info().
		Str("backend", cfg.Backend).
		Str("offline_topic", cfg.OfflineTopic).
		Str("last_seen_topic", cfg.LastSeenTopic).
		Msg("Delivery publisher ready")
	return stack, nil
}

// close stops the publisher, then the embedded broker.
func (d *deliveryStack) close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing delivery publisher")
		}
	}
	d.shutdownEmbedded()
}

func (d *deliveryStack) shutdownEmbedded() {
	if d.embedded == nil || !d.embedded.IsRunning() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS did not stop cleanly")
	}
}
