// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// parseURLWithScheme parses raw and requires one of schemes and a host.
func parseURLWithScheme(raw string, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	ok := false
	for _, s := range schemes {
		if u.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("scheme must be one of %s, got: %q", strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	return u, nil
}

// validateHTTPURL checks the directory base URL. Lookup paths are appended
// to it, so a query string would end up in the middle of every request path.
func validateHTTPURL(raw, field string) error {
	u, err := parseURLWithScheme(raw, "http", "https")
	if err != nil {
		return fmt.Errorf("%s %w", field, err)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s must not contain query parameters, remove: ?%s", field, u.RawQuery)
	}
	return nil
}

// validateNATSURL accepts a single server URL or a comma-separated seed list,
// as nats.Connect does.
func validateNATSURL(raw string) error {
	for _, server := range strings.Split(raw, ",") {
		if _, err := parseURLWithScheme(strings.TrimSpace(server), "nats", "tls", "ws", "wss"); err != nil {
			return err
		}
	}
	return nil
}

// validateHostPort checks a host:port address such as REDIS_ADDR.
func validateHostPort(addr, field string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s must be host:port: %w", field, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("%s must be host:port, got: %s", field, addr)
	}
	return nil
}
