// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/validation"
)

var (
	// ErrUnknownEvent is returned for an inbound type outside the Event variant.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrMalformedPayload is returned when a frame or its data cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)

// DecodeError is a frame that could not be turned into an Event.
// Event is the inbound type when it was readable.
type DecodeError struct {
	Event string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a single event. It is reported to the sender as a
// scoped error and never closes the connection.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validate runs struct validation and converts the result.
func validate(payload interface{}) error {
	if verr := validation.ValidateStruct(payload); verr != nil {
		return &ValidationError{Message: verr.Error()}
	}
	return nil
}

// Event is the closed set of inbound client events.
type Event interface {
	Type() string
	event()
}

// LocationUpdate is an inbound location:update.
type LocationUpdate struct{ Payload models.LocationUpdate }

// RouteProgress is an inbound route:progress.
type RouteProgress struct{ Payload models.RouteProgressUpdate }

// ETAShare is an inbound eta:share.
type ETAShare struct{ Payload models.ETAShare }

// NotificationSend is an inbound notification:send.
type NotificationSend struct{ Payload models.NotificationSend }

// LocationSnapshot is an inbound location:snapshot.
type LocationSnapshot struct{}

func (LocationUpdate) Type() string   { return models.EventLocationUpdate }
func (RouteProgress) Type() string    { return models.EventRouteProgress }
func (ETAShare) Type() string         { return models.EventETAShare }
func (NotificationSend) Type() string { return models.EventNotificationSend }
func (LocationSnapshot) Type() string { return models.EventLocationSnapshot }

func (LocationUpdate) event()   {}
func (RouteProgress) event()    {}
func (ETAShare) event()         {}
func (NotificationSend) event() {}
func (LocationSnapshot) event() {}

// Decode parses one client frame of the form {"type": ..., "data": {...}}.
// Payload validation is left to the handlers.
func Decode(raw []byte) (Event, error) {
	var in models.InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}

	switch in.Type {
	case models.EventLocationUpdate:
		var p models.LocationUpdate
		if err := decodeData(in, &p); err != nil {
			return nil, err
		}
		return LocationUpdate{Payload: p}, nil
	case models.EventRouteProgress:
		var p models.RouteProgressUpdate
		if err := decodeData(in, &p); err != nil {
			return nil, err
		}
		return RouteProgress{Payload: p}, nil
	case models.EventETAShare:
		var p models.ETAShare
		if err := decodeData(in, &p); err != nil {
			return nil, err
		}
		return ETAShare{Payload: p}, nil
	case models.EventNotificationSend:
		var p models.NotificationSend
		if err := decodeData(in, &p); err != nil {
			return nil, err
		}
		return NotificationSend{Payload: p}, nil
	case models.EventLocationSnapshot:
		return LocationSnapshot{}, nil
	case "":
		return nil, &DecodeError{Err: fmt.Errorf("%w: missing type", ErrMalformedPayload)}
	default:
		return nil, &DecodeError{Event: in.Type, Err: ErrUnknownEvent}
	}
}

// decodeData unmarshals in.Data into dst. Missing or null data is malformed.
func decodeData(in models.InboundMessage, dst interface{}) error {
	data := bytes.TrimSpace(in.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &DecodeError{Event: in.Type, Err: fmt.Errorf("%w: missing data", ErrMalformedPayload)}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &DecodeError{Event: in.Type, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	return nil
}
