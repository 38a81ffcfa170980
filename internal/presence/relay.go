// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// Relay routes ad-hoc notifications.
type Relay struct {
	registry *Registry
	graph    SocialGraph
	offline  OfflineDelivery
	opts     Options
}

// NewRelay wires a notification relay.
func NewRelay(registry *Registry, graph SocialGraph, offline OfflineDelivery, opts Options) *Relay {
	return &Relay{
		registry: registry,
		graph:    graph,
		offline:  offline,
		opts:     opts.withDefaults(),
	}
}

// Send pushes a notification to its recipients. Without explicit recipients
// the sender's current ACCEPTED friends are used. Online recipients get a
// notification:push; all offline recipients are handed off together, once.
// It returns the number of online recipients reached.
func (r *Relay) Send(ctx context.Context, sender models.UserID, n models.NotificationSend) (int, error) {
	if err := validate(&n); err != nil {
		return 0, err
	}

	var recipients []models.UserID
	if len(n.RecipientIDs) > 0 {
		recipients = recipientSet(sender, n.RecipientIDs)
	} else {
		recipients = resolveFriends(ctx, r.graph, sender, r.opts.LookupTimeout)
	}

	push := models.NotificationPush{
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Data:       n.Data,
		FromUserID: sender,
		Timestamp:  r.opts.Now(),
	}

	result := fanout(ctx, r.registry, models.EventNotificationSend, recipients,
		models.Message{Type: models.EventNotificationPush, Data: push})

	if len(result.offline) > 0 {
		handoffCtx, cancel := context.WithTimeout(ctx, r.opts.LookupTimeout)
		defer cancel()

		if err := r.offline.DeliverOffline(handoffCtx, result.offline, push); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("event", models.EventNotificationSend).
				Int("recipients", len(result.offline)).
				Msg("Offline hand-off failed")
		}
	}

	return result.delivered, nil
}
