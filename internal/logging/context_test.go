// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateSessionID(t *testing.T) {
	t.Parallel()

	id1 := GenerateSessionID()
	id2 := GenerateSessionID()

	if len(id1) != 8 {
		t.Errorf("expected 8-character session ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique session IDs")
	}
}

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	if id := GenerateRequestID(); len(id) != 36 {
		t.Errorf("expected 36-character request ID, got %d", len(id))
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if SessionIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on bare context")
	}

	ctx = ContextWithSession(ctx, "abcd1234", "user-1")
	if got := SessionIDFromContext(ctx); got != "abcd1234" {
		t.Errorf("SessionIDFromContext() = %q, want abcd1234", got)
	}
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Errorf("UserIDFromContext() = %q, want user-1", got)
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer

	ctx := ContextWithLogger(context.Background(), zerolog.New(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithSession(ctx, "sess-1", "user-1")

	Ctx(ctx).Info().Msg("dispatched")

	output := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"session_id":"sess-1"`, `"user_id":"user-1"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestCtxWithoutFields(t *testing.T) {
	var buf bytes.Buffer

	ctx := ContextWithLogger(context.Background(), zerolog.New(&buf))
	Ctx(ctx).Info().Msg("plain")

	if strings.Contains(buf.String(), "session_id") {
		t.Errorf("unexpected session_id in output: %s", buf.String())
	}
}
