// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/delivery"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func TestInitDelivery_GoChannel(t *testing.T) {
	cfg := config.Defaults().Delivery
	cfg.Backend = "gochannel"
	cfg.AllowInProcess = true

	stack, err := initDelivery(&cfg)
	if err != nil {
		t.Fatalf("initDelivery() error = %v", err)
	}
	defer stack.close()

	if stack.embedded != nil {
		t.Error("gochannel backend should not start an embedded server")
	}
	if stack.publisher.Subscriber() == nil {
		t.Error("gochannel backend should expose its subscriber")
	}
}

func TestInitDelivery_EmbeddedNATS(t *testing.T) {
	cfg := config.Defaults().Delivery
	cfg.Backend = "nats"
	cfg.EmbeddedNATS = true
	cfg.EmbeddedPort = -1

	stack, err := initDelivery(&cfg)
	if err != nil {
		t.Fatalf("initDelivery() error = %v", err)
	}

	if stack.embedded == nil || !stack.embedded.IsRunning() {
		t.Fatal("embedded server should be running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stack.publisher.MarkLastSeen(ctx, models.UserID("u1"), time.Now()); err != nil {
		t.Errorf("MarkLastSeen() through embedded broker error = %v", err)
	}

	stack.close()
	if stack.embedded.IsRunning() {
		t.Error("close() should stop the embedded server")
	}
}

// The shipped defaults must hand offline recipients to a broker that
// processes outside this one can subscribe to.
func TestInitDelivery_DefaultsReachExternalSubscriber(t *testing.T) {
	cfg := config.Defaults().Delivery
	if cfg.Backend != "nats" || !cfg.EmbeddedNATS {
		t.Fatalf("default delivery = %s embedded=%v, want nats with embedded broker", cfg.Backend, cfg.EmbeddedNATS)
	}
	cfg.EmbeddedPort = -1

	stack, err := initDelivery(&cfg)
	if err != nil {
		t.Fatalf("initDelivery() error = %v", err)
	}
	defer stack.close()

	if stack.publisher.Subscriber() != nil {
		t.Error("default backend should not be in-process")
	}

	nc, err := natsgo.Connect(stack.embedded.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync(cfg.OfflineTopic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	push := models.NotificationPush{Type: "ride", Title: "On my way", Message: "Leaving now", FromUserID: "alice", Timestamp: time.Now()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stack.publisher.DeliverOffline(ctx, []models.UserID{"carol"}, push); err != nil {
		t.Fatalf("DeliverOffline() error = %v", err)
	}

	msg, err := sub.NextMsg(3 * time.Second)
	if err != nil {
		t.Fatalf("offline hand-off never reached the subscriber: %v", err)
	}
	var got delivery.OfflineNotification
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(got.RecipientIDs) != 1 || got.RecipientIDs[0] != "carol" {
		t.Errorf("recipients = %v, want [carol]", got.RecipientIDs)
	}
}

func TestDefaults_RejectInProcessDelivery(t *testing.T) {
	cfg := config.Defaults()
	cfg.Delivery.Backend = "gochannel"
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.Directory.BaseURL = "http://app.internal:3000"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted gochannel without delivery.allow_in_process")
	}

	cfg.Delivery.AllowInProcess = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with allow_in_process error = %v", err)
	}
}
