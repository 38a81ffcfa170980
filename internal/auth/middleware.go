// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package auth

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity attaches identity to ctx.
func ContextWithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity attached by the gate.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

// Middleware rejects unauthenticated requests with 401 and a JSON reason,
// and otherwise attaches the identity to the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Authenticate(r.Context(), r)
		metrics.RecordHandshake(Reason(err))
		if err != nil {
			logging.Ctx(r.Context()).Debug().
				Str("reason", Reason(err)).
				Str("remote_addr", r.RemoteAddr).
				Msg("Handshake rejected")
			writeAuthError(w, err)
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		ctx = logging.ContextWithSession(ctx, logging.GenerateSessionID(), identity.UserID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="waypoint"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
