// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

// Event outcomes recorded in waypoint_events_total.
const (
	OutcomeAck         = "ack"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

// Dispatcher routes decoded events to their handler.
type Dispatcher struct {
	broadcaster *Broadcaster
	relay       *Relay
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(broadcaster *Broadcaster, relay *Relay) *Dispatcher {
	return &Dispatcher{broadcaster: broadcaster, relay: relay}
}

// Handle processes one raw client frame from sender and returns the reply
// for the sender: an acknowledgement or a scoped error. It never panics.
//
// Fan-out already dispatched is not retracted if the sender disconnects
// meanwhile, so cancellation of ctx is detached for the handler.
func (d *Dispatcher) Handle(ctx context.Context, sender models.UserID, raw []byte) (reply models.Message) {
	start := time.Now()
	eventType := "unknown"
	outcome := OutcomeAck

	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", rec).
				Str("event", eventType).
				Msg("Event handler panicked")
			outcome = OutcomeFailed
			reply = ErrorMessage(eventType, "internal error")
		}
		metrics.RecordEvent(eventType, outcome, time.Since(start))
	}()

	ev, err := Decode(raw)
	if err != nil {
		outcome = OutcomeInvalid
		var decodeErr *DecodeError
		scope := ""
		if errors.As(err, &decodeErr) {
			scope = decodeErr.Event
		}
		// Unknown types stay labelled "unknown" to bound metric cardinality.
		if scope != "" && !errors.Is(err, ErrUnknownEvent) {
			eventType = scope
		}
		return ErrorMessage(scope, err.Error())
	}
	eventType = ev.Type()

	ctx = context.WithoutCancel(ctx)

	data, err := d.dispatch(ctx, sender, ev)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			outcome = OutcomeInvalid
		} else {
			outcome = OutcomeFailed
			logging.Ctx(ctx).Error().Err(err).Str("event", eventType).Msg("Event handling failed")
		}
		return ErrorMessage(eventType, err.Error())
	}

	return models.Message{Type: models.AckType(eventType), Data: data}
}

// dispatch is the single switch over the Event variant.
func (d *Dispatcher) dispatch(ctx context.Context, sender models.UserID, ev Event) (interface{}, error) {
	switch e := ev.(type) {
	case LocationUpdate:
		n, err := d.broadcaster.HandleLocationUpdate(ctx, sender, e.Payload)
		return models.NewAck(n), err
	case RouteProgress:
		n, err := d.broadcaster.HandleRouteProgress(ctx, sender, e.Payload)
		return models.NewAck(n), err
	case ETAShare:
		n, err := d.broadcaster.HandleETAShare(ctx, sender, e.Payload)
		return models.NewAck(n), err
	case NotificationSend:
		n, err := d.relay.Send(ctx, sender, e.Payload)
		return models.NewAck(n), err
	case LocationSnapshot:
		return d.broadcaster.LocationSnapshot(ctx, sender), nil
	default:
		return nil, ErrUnknownEvent
	}
}

// ErrorMessage builds a scoped error frame. event may be empty.
func ErrorMessage(event, message string) models.Message {
	return models.Message{
		Type: models.EventError,
		Data: models.ErrorPayload{Message: message, Event: event},
	}
}
