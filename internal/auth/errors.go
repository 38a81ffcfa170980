// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package auth

import "errors"

// Handshake rejection reasons. Each message is sent verbatim to the client.
var (
	// ErrNoCredentials means no bearer token was supplied.
	ErrNoCredentials = errors.New("authentication required")

	// ErrInvalidCredentials means the token is malformed, badly signed or
	// carries no subject.
	ErrInvalidCredentials = errors.New("invalid token")

	// ErrExpiredCredentials means the token is past its expiry.
	ErrExpiredCredentials = errors.New("token expired")

	// ErrUnknownIdentity means the token subject does not resolve to a user.
	ErrUnknownIdentity = errors.New("user not found")

	// ErrInactiveIdentity means the user exists but is deactivated.
	ErrInactiveIdentity = errors.New("user is inactive")

	// ErrAuthenticatorUnavailable means the identity lookup itself failed.
	ErrAuthenticatorUnavailable = errors.New("authentication unavailable")
)

// Reason maps an error returned by Gate.Authenticate to a metrics label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrNoCredentials):
		return "no_credentials"
	case errors.Is(err, ErrExpiredCredentials):
		return "expired"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid"
	case errors.Is(err, ErrUnknownIdentity):
		return "unknown_identity"
	case errors.Is(err, ErrInactiveIdentity):
		return "inactive"
	case errors.Is(err, ErrAuthenticatorUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
