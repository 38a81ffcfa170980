// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// tokenQueryParam carries the credential when the client cannot set headers.
const tokenQueryParam = "token"

// IdentityLookup resolves a user ID against the identity service.
// found is false for an unknown user; err is reserved for lookup failures.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, id models.UserID) (identity models.Identity, found bool, err error)
}

// Gate authenticates connection handshakes.
type Gate struct {
	jwt     *JWTManager
	lookup  IdentityLookup
	timeout time.Duration
}

// NewGate creates a gate. timeout bounds the identity lookup; zero means
// only the request context bounds it.
func NewGate(manager *JWTManager, lookup IdentityLookup, timeout time.Duration) *Gate {
	return &Gate{jwt: manager, lookup: lookup, timeout: timeout}
}

// Authenticate verifies the request's bearer credential and resolves it to an
// active identity.
func (g *Gate) Authenticate(ctx context.Context, r *http.Request) (models.Identity, error) {
	tokenStr := extractToken(r)
	if tokenStr == "" {
		return models.Identity{}, ErrNoCredentials
	}

	claims, err := g.jwt.ValidateToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrExpiredCredentials
		}
		return models.Identity{}, ErrInvalidCredentials
	}

	userID := claims.Identity()
	if userID == "" {
		return models.Identity{}, ErrInvalidCredentials
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	identity, found, err := g.lookup.LookupIdentity(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID.String()).Msg("Identity lookup failed during handshake")
		return models.Identity{}, ErrAuthenticatorUnavailable
	}
	if !found {
		return models.Identity{}, ErrUnknownIdentity
	}
	if !identity.Active {
		return models.Identity{}, ErrInactiveIdentity
	}

	// The token subject is authoritative.
	identity.UserID = userID
	return identity, nil
}

// extractToken returns the bearer token from the Authorization header, or
// from the token query parameter when no header is present.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
		return ""
	}

	return strings.TrimSpace(r.URL.Query().Get(tokenQueryParam))
}
