// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package config

import (
	"fmt"
	"strings"
)

// minJWTSecretLength is the minimum HS256 secret length accepted at startup.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validatePresence(); err != nil {
		return err
	}

	if err := c.validateWebSocket(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateDirectory(); err != nil {
		return err
	}

	if err := c.validateDelivery(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters, got: %d", minJWTSecretLength, len(c.Security.JWTSecret))
	}
	if c.Security.HandshakeRateLimit < 0 {
		return fmt.Errorf("HANDSHAKE_RATE_LIMIT must be >= 0 (0 disables)")
	}
	return nil
}

func (c *Config) validatePresence() error {
	p := c.Presence
	durations := map[string]int64{
		"LOCATION_TTL":       int64(p.LocationTTL),
		"ROUTE_PROGRESS_TTL": int64(p.RouteProgressTTL),
		"LOOKUP_TIMEOUT":     int64(p.LookupTimeout),
		"STORE_TIMEOUT":      int64(p.StoreTimeout),
		"LAST_SEEN_TIMEOUT":  int64(p.LastSeenTimeout),
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	if ws.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1, got: %d", ws.SendBuffer)
	}
	if ws.MaxMessageSize < 512 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 512 bytes, got: %d", ws.MaxMessageSize)
	}
	if ws.MaxInflight < 1 {
		return fmt.Errorf("WS_MAX_INFLIGHT must be at least 1, got: %d", ws.MaxInflight)
	}
	if ws.EventsPerSecond < 0 {
		return fmt.Errorf("WS_EVENTS_PER_SECOND must be >= 0 (0 disables)")
	}
	if ws.EventsPerSecond > 0 && ws.EventBurst < 1 {
		return fmt.Errorf("WS_EVENT_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory", "badger":
		return nil
	case "redis":
		return validateHostPort(c.Store.RedisAddr, "REDIS_ADDR")
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, badger, redis, got: %s", c.Store.Backend)
	}
}

func (c *Config) validateDirectory() error {
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("DIRECTORY_URL is required")
	}
	if err := validateHTTPURL(c.Directory.BaseURL, "DIRECTORY_URL"); err != nil {
		return err
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("DIRECTORY_TIMEOUT must be positive")
	}
	if c.Directory.BreakerFailures == 0 {
		return fmt.Errorf("DIRECTORY_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	d := c.Delivery
	switch d.Backend {
	case "gochannel":
		if !d.AllowInProcess {
			return fmt.Errorf("DELIVERY_BACKEND=gochannel has no external consumers; set DELIVERY_ALLOW_IN_PROCESS=true to use it")
		}
	case "nats":
		if d.EmbeddedNATS {
			if d.EmbeddedHost == "" {
				return fmt.Errorf("NATS_EMBEDDED_HOST is required when NATS_EMBEDDED is set")
			}
			if d.EmbeddedPort < -1 || d.EmbeddedPort > 65535 {
				return fmt.Errorf("NATS_EMBEDDED_PORT must be between -1 and 65535, got: %d", d.EmbeddedPort)
			}
		} else {
			if err := validateNATSURL(d.NATSURL); err != nil {
				return fmt.Errorf("NATS_URL is invalid: %w", err)
			}
		}
	default:
		return fmt.Errorf("DELIVERY_BACKEND must be nats or gochannel, got: %s", d.Backend)
	}

	if d.OfflineTopic == "" || d.LastSeenTopic == "" {
		return fmt.Errorf("OFFLINE_TOPIC and LAST_SEEN_TOPIC are required")
	}
	if d.OfflineTopic == d.LastSeenTopic {
		return fmt.Errorf("OFFLINE_TOPIC and LAST_SEEN_TOPIC must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}
