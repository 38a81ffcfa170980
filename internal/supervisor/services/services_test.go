// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/waypoint/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*WebSocketServerService)(nil)
	_ suture.Service = (*EmbeddedNATSService)(nil)
)

type fakeHTTPServer struct {
	listenErr   error // returned immediately when set
	shutdownErr error
	started     chan struct{}
	stop        chan struct{}
	shutdowns   atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return f.shutdownErr
}

func serveAsync(svc suture.Service, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func awaitResult(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestNewHTTPServerService_Timeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"explicit", 3 * time.Second, 3 * time.Second},
		{"zero", 0, 10 * time.Second},
		{"negative", -time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHTTPServerService(newFakeHTTPServer(), tt.in)
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "http-server" {
				t.Errorf("String() = %q", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		server := newFakeHTTPServer()
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewHTTPServerService(server, time.Second), ctx)

		<-server.started
		cancel()

		if err := awaitResult(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newFakeHTTPServer()
		server.listenErr = bindErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want wrapped bind error", err)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		timeout := errors.New("shutdown timeout")
		server := newFakeHTTPServer()
		server.shutdownErr = timeout
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewHTTPServerService(server, time.Second), ctx)

		<-server.started
		cancel()

		if err := awaitResult(t, errCh); !errors.Is(err, timeout) {
			t.Errorf("Serve() = %v, want shutdown error", err)
		}
	})
}

type fakeContextServer struct {
	runs   atomic.Int32
	runErr error
}

func (f *fakeContextServer) RunWithContext(ctx context.Context) error {
	f.runs.Add(1)
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketServerService(t *testing.T) {
	server := &fakeContextServer{}
	svc := NewWebSocketServerService(server)
	if svc.String() != "websocket-server" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(svc, ctx)
	cancel()
	if err := awaitResult(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}

	failing := &fakeContextServer{runErr: errors.New("boom")}
	if err := NewWebSocketServerService(failing).Serve(context.Background()); err == nil {
		t.Error("expected RunWithContext error to propagate")
	}
}

func TestWebSocketServerService_RestartedBySupervisor(t *testing.T) {
	server := &fakeContextServer{runErr: errors.New("crashed")}
	sup := suture.New("test", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewWebSocketServerService(server))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for server.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if server.runs.Load() < 2 {
		t.Errorf("RunWithContext called %d times, want restarts", server.runs.Load())
	}
}

type fakeBroker struct {
	running atomic.Bool
}

func (f *fakeBroker) ClientURL() string { return "nats://127.0.0.1:4222" }
func (f *fakeBroker) IsRunning() bool   { return f.running.Load() }

func TestEmbeddedNATSService(t *testing.T) {
	t.Run("leaves broker running on cancel", func(t *testing.T) {
		broker := &fakeBroker{}
		broker.running.Store(true)
		svc := NewEmbeddedNATSService(broker)
		if svc.String() != "embedded-nats" {
			t.Errorf("String() = %q", svc.String())
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(svc, ctx)
		cancel()

		if err := awaitResult(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if !broker.running.Load() {
			t.Error("broker should be stopped by its owner, not the service")
		}
	})

	t.Run("dead broker is not restarted", func(t *testing.T) {
		broker := &fakeBroker{}
		svc := NewEmbeddedNATSService(broker)
		svc.checkInterval = 5 * time.Millisecond

		err := svc.Serve(context.Background())
		if !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() = %v, want ErrDoNotRestart", err)
		}
	})
}
