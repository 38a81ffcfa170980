// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/waypoint/internal/api"
	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/directory"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/presence"
	"github.com/tomtom215/waypoint/internal/store"
	"github.com/tomtom215/waypoint/internal/supervisor"
	"github.com/tomtom215/waypoint/internal/supervisor/services"
	ws "github.com/tomtom215/waypoint/internal/websocket"
)

//nolint:gocyclo // sequential wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("config", cfg.String()).Msg("Starting Waypoint")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stateStore, err := store.New(ctx, cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open state store")
	}
	defer func() {
		if err := stateStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing state store")
		}
	}()
	logging.Info().Str("backend", cfg.Store.Backend).Msg("State store ready")

	dir := directory.NewClient(&cfg.Directory)

	deliveryStack, err := initDelivery(&cfg.Delivery)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize delivery")
	}
	defer deliveryStack.close()

	// Presence components
	opts := presence.OptionsFromConfig(&cfg.Presence)
	registry := presence.NewRegistry()
	cache := presence.NewStateCache(stateStore, opts)
	broadcaster := presence.NewBroadcaster(registry, dir, dir, cache, opts)
	relay := presence.NewRelay(registry, dir, deliveryStack.publisher, opts)
	reaper := presence.NewReaper(registry, deliveryStack.publisher, opts)
	dispatcher := presence.NewDispatcher(broadcaster, relay)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT verification")
	}
	gate := auth.NewGate(jwtManager, dir, cfg.Presence.LookupTimeout)

	wsServer := ws.NewServer(registry, dispatcher, reaper, cfg)

	handler := api.NewHandler(registry, dir, wsServer, cfg.Presence.LookupTimeout)
	router := api.NewRouter(handler, gate, wsServer, api.ChiMiddlewareConfigFrom(cfg))

	// No WriteTimeout: it would also bound the lifetime of hijacked websockets.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if deliveryStack.embedded != nil {
		tree.AddDeliveryService(services.NewEmbeddedNATSService(deliveryStack.embedded))
	}
	tree.AddRealtimeService(services.NewWebSocketServerService(wsServer))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Closed sessions run their teardown asynchronously; let the last-seen
	// publishes finish before the publisher goes away.
	waitForReaper(reaper, cfg.Presence.LastSeenTimeout)

	logging.Info().Msg("Waypoint stopped")
}

func waitForReaper(reaper *presence.Reaper, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		reaper.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("Disconnect teardown still pending at exit")
	}
}
