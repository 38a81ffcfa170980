// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package testinfra provides container-backed infrastructure for integration
// tests. Everything here is built only with the `integration` tag:
//
//	go test -tags integration ./internal/store/...
//
// Tests are skipped gracefully when Docker is unavailable. First runs may
// need to pull images.
package testinfra
