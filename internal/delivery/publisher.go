// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package delivery hands work that outlives a live connection to external
// consumers over Watermill: notifications for offline recipients, and
// last-seen timestamps when a user disconnects.
//
// Delivery is best effort. A publish is attempted once behind a circuit
// breaker; nothing is retried or persisted here. Durability, if any, belongs
// to whatever consumes the topics (a push service, the application's stored
// notifications).
//
// Backends:
//   - nats: core NATS via watermill-nats (optionally an embedded server)
//   - gochannel: in-process Watermill pub/sub with no external consumer,
//     for tests or with delivery.allow_in_process
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

var (
	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("delivery: publisher is closed")

	// ErrUnavailable means the breaker is rejecting publishes.
	ErrUnavailable = errors.New("delivery: unavailable")
)

// OfflineNotification is published once per notification for all recipients
// that were not connected.
type OfflineNotification struct {
	RecipientIDs []models.UserID         `json:"recipientIds"`
	Notification models.NotificationPush `json:"notification"`
}

// LastSeen is published when a user's registered connection goes away.
type LastSeen struct {
	UserID     models.UserID `json:"userId"`
	LastSeenAt time.Time     `json:"lastSeenAt"`
}

// Publisher publishes delivery messages with circuit breaker protection.
type Publisher struct {
	publisher     message.Publisher
	subscriber    message.Subscriber // set only for the gochannel backend
	cb            *gobreaker.CircuitBreaker[struct{}]
	offlineTopic  string
	lastSeenTopic string

	mu     sync.RWMutex
	closed bool
}

// New builds the publisher selected by cfg.Backend. url is the NATS URL to
// use, which differs from cfg.NATSURL when an embedded server is running.
func New(cfg *config.DeliveryConfig, url string) (*Publisher, error) {
	logger := logging.NewWatermillAdapter()

	switch cfg.Backend {
	case "", "gochannel":
		goChannel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		p := NewPublisher(goChannel, cfg)
		p.subscriber = goChannel
		return p, nil
	case "nats":
		pub, err := newNATSPublisher(url, logger)
		if err != nil {
			return nil, err
		}
		return NewPublisher(pub, cfg), nil
	default:
		return nil, fmt.Errorf("delivery: unknown backend %q", cfg.Backend)
	}
}

// NewPublisher wraps an existing Watermill publisher.
func NewPublisher(pub message.Publisher, cfg *config.DeliveryConfig) *Publisher {
	const cbName = "delivery-publisher"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	return &Publisher{
		publisher:     pub,
		cb:            cb,
		offlineTopic:  cfg.OfflineTopic,
		lastSeenTopic: cfg.LastSeenTopic,
	}
}

// Subscriber returns the in-process subscriber for the gochannel backend,
// or nil for external brokers.
func (p *Publisher) Subscriber() message.Subscriber {
	return p.subscriber
}

// DeliverOffline hands recipients and the notification to the offline
// consumer. An empty recipient list publishes nothing.
func (p *Publisher) DeliverOffline(ctx context.Context, recipients []models.UserID, notification models.NotificationPush) error {
	if len(recipients) == 0 {
		return nil
	}

	err := p.publishJSON(ctx, p.offlineTopic, OfflineNotification{
		RecipientIDs: recipients,
		Notification: notification,
	}, map[string]string{
		"from_user_id":      notification.FromUserID.String(),
		"notification_type": notification.Type,
	})
	metrics.RecordOfflineHandoff(err)
	return err
}

// MarkLastSeen publishes a last-seen timestamp for userID.
func (p *Publisher) MarkLastSeen(ctx context.Context, userID models.UserID, at time.Time) error {
	err := p.publishJSON(ctx, p.lastSeenTopic, LastSeen{
		UserID:     userID,
		LastSeenAt: at.UTC(),
	}, map[string]string{
		"user_id": userID.String(),
	})
	metrics.RecordLastSeen(err)
	return err
}

func (p *Publisher) publishJSON(ctx context.Context, topic string, payload interface{}, metadata map[string]string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.SetContext(ctx)
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	_, err = p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(topic, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close shuts down the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
