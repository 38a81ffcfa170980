// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package logging

import (
	"fmt"
	"strings"
)

// SanitizeToken masks a bearer token, showing only the first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiIs...kpXV" -> "eyJh...kpXV"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeCoordinate drops precision from a coordinate so that debug logs
// never carry a user's exact position (two decimals is roughly 1km).
func SanitizeCoordinate(v float64) float64 {
	return float64(int64(v*100)) / 100
}

// SanitizeError replaces error text that may echo credentials with a generic message.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, pattern := range []string{"secret", "token", "bearer", "authorization", "password"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	if len(err) > 200 {
		return err[:200] + "..."
	}
	return err
}

// SanitizeString escapes control characters so that client-supplied values
// (origins, event types) cannot forge log lines.
func SanitizeString(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
