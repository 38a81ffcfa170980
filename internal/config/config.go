// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package config loads Waypoint configuration with Koanf v2.
//
// Loading order (later layers win):
//  1. Defaults: built-in values for every optional setting
//  2. Config file: config.yaml, or the path in CONFIG_PATH
//  3. Environment variables: an explicit allow-list mapped to config paths
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	srv := http.Server{Addr: cfg.Server.Addr()}
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Presence  PresenceConfig  `koanf:"presence"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Store     StoreConfig     `koanf:"store"`
	Directory DirectoryConfig `koanf:"directory"`
	Delivery  DeliveryConfig  `koanf:"delivery"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"` // CORS and websocket Origin check; "*" allows all
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig configures handshake authentication.
type SecurityConfig struct {
	JWTSecret          string `koanf:"jwt_secret"`
	JWTIssuer          string `koanf:"jwt_issuer"`           // Optional: enforced when set
	HandshakeRateLimit int    `koanf:"handshake_rate_limit"` // Handshakes per minute per IP; 0 disables
}

// PresenceConfig configures the fan-out layer.
type PresenceConfig struct {
	LocationTTL      time.Duration `koanf:"location_ttl"`
	RouteProgressTTL time.Duration `koanf:"route_progress_ttl"`
	LookupTimeout    time.Duration `koanf:"lookup_timeout"`    // Friend and route-share lookups
	StoreTimeout     time.Duration `koanf:"store_timeout"`     // Ephemeral store reads and writes
	LastSeenTimeout  time.Duration `koanf:"last_seen_timeout"` // Async last-seen publish on disconnect
	KickDisplaced    bool          `koanf:"kick_displaced"`    // Close the older handle when an identity reconnects
}

// WebSocketConfig configures per-connection transport limits.
type WebSocketConfig struct {
	SendBuffer      int     `koanf:"send_buffer"`
	MaxMessageSize  int64   `koanf:"max_message_size"`
	MaxInflight     int     `koanf:"max_inflight"`
	EventsPerSecond float64 `koanf:"events_per_second"`
	EventBurst      int     `koanf:"event_burst"`
}

// StoreConfig selects the ephemeral state backend.
type StoreConfig struct {
	Backend       string `koanf:"backend"`     // memory, badger, redis
	BadgerPath    string `koanf:"badger_path"` // Empty runs badger in-memory
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DirectoryConfig points at the surrounding application's internal API,
// which owns identities, friendships and route shares.
type DirectoryConfig struct {
	BaseURL         string        `koanf:"base_url"`
	ServiceToken    string        `koanf:"service_token"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// DeliveryConfig configures the offline notification and last-seen publisher.
type DeliveryConfig struct {
	Backend       string `koanf:"backend"` // nats, gochannel
	NATSURL       string `koanf:"nats_url"`
	EmbeddedNATS  bool   `koanf:"embedded_nats"`
	EmbeddedHost  string `koanf:"embedded_host"`
	EmbeddedPort  int    `koanf:"embedded_port"` // -1 picks a random port
	OfflineTopic  string `koanf:"offline_topic"`
	LastSeenTopic string `koanf:"last_seen_topic"`

	// AllowInProcess permits the gochannel backend. Nothing outside the
	// process can subscribe to it, so hand-offs never leave the binary.
	AllowInProcess bool `koanf:"allow_in_process"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// String returns a summary safe for logging (secrets omitted).
func (c *Config) String() string {
	return fmt.Sprintf("server=%s store=%s delivery=%s directory=%s",
		c.Server.Addr(), c.Store.Backend, c.Delivery.Backend, c.Directory.BaseURL)
}
