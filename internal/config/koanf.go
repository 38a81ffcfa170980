// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/waypoint/config.yaml",
	"/etc/waypoint/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Security: SecurityConfig{
			JWTSecret:          "",
			JWTIssuer:          "",
			HandshakeRateLimit: 30,
		},
		Presence: PresenceConfig{
			LocationTTL:      300 * time.Second,
			RouteProgressTTL: 3600 * time.Second,
			LookupTimeout:    3 * time.Second,
			StoreTimeout:     1 * time.Second,
			LastSeenTimeout:  5 * time.Second,
			KickDisplaced:    false,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:      256,
			MaxMessageSize:  64 << 10, // 64KiB
			MaxInflight:     16,
			EventsPerSecond: 20,
			EventBurst:      40,
		},
		Store: StoreConfig{
			Backend:    "memory",
			BadgerPath: "",
			RedisAddr:  "127.0.0.1:6379",
			RedisDB:    0,
		},
		Directory: DirectoryConfig{
			BaseURL:         "",
			Timeout:         3 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Delivery: DeliveryConfig{
			Backend:        "nats",
			NATSURL:        "nats://127.0.0.1:4222",
			EmbeddedNATS:   true,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
			OfflineTopic:   "waypoint.notifications.offline",
			LastSeenTopic:  "waypoint.presence.last_seen",
			AllowInProcess: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config File (optional YAML)
//  3. Environment Variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// JWT_SECRET -> security.jwt_secret, REDIS_ADDR -> store.redis_addr
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps allowed environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored so that unrelated environment does not leak into config.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",
	"allowed_origins":  "server.allowed_origins",

	// Security
	"jwt_secret":           "security.jwt_secret",
	"jwt_issuer":           "security.jwt_issuer",
	"handshake_rate_limit": "security.handshake_rate_limit",

	// Presence
	"location_ttl":       "presence.location_ttl",
	"route_progress_ttl": "presence.route_progress_ttl",
	"lookup_timeout":     "presence.lookup_timeout",
	"store_timeout":      "presence.store_timeout",
	"last_seen_timeout":  "presence.last_seen_timeout",
	"kick_displaced":     "presence.kick_displaced",

	// WebSocket
	"ws_send_buffer":       "websocket.send_buffer",
	"ws_max_message_size":  "websocket.max_message_size",
	"ws_max_inflight":      "websocket.max_inflight",
	"ws_events_per_second": "websocket.events_per_second",
	"ws_event_burst":       "websocket.event_burst",

	// Store
	"store_backend":  "store.backend",
	"badger_path":    "store.badger_path",
	"redis_addr":     "store.redis_addr",
	"redis_password": "store.redis_password",
	"redis_db":       "store.redis_db",

	// Directory
	"directory_url":              "directory.base_url",
	"directory_token":            "directory.service_token",
	"directory_timeout":          "directory.timeout",
	"directory_breaker_failures": "directory.breaker_failures",
	"directory_breaker_timeout":  "directory.breaker_timeout",

	// Delivery
	"delivery_backend":          "delivery.backend",
	"nats_url":                  "delivery.nats_url",
	"nats_embedded":             "delivery.embedded_nats",
	"nats_embedded_host":        "delivery.embedded_host",
	"nats_embedded_port":        "delivery.embedded_port",
	"delivery_allow_in_process": "delivery.allow_in_process",
	"offline_topic":             "delivery.offline_topic",
	"last_seen_topic":           "delivery.last_seen_topic",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> security.jwt_secret
//   - STORE_BACKEND -> store.backend
//   - DIRECTORY_URL -> directory.base_url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
