// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package directory is the client for the surrounding application's internal
// API. It answers the three questions the presence layer asks per event:
//
//   - who is this user (identity lookup during the handshake)
//   - who are this user's accepted friends (location and notification fan-out)
//   - who is a route shared with (route progress fan-out)
//
// The friendship relation is stored as asymmetric requester/addressee rows.
// FriendsOf normalizes it into a symmetric set so the presence layer never
// branches on which column holds the viewer.
//
// Every call runs behind a gobreaker circuit breaker. A 404 is an answer, not
// a failure, and does not count against the breaker.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
)

// maxResponseBytes bounds a single directory response body.
const maxResponseBytes = 1 << 20

var (
	// ErrNotFound means the directory has no such user or route.
	ErrNotFound = errors.New("directory: not found")

	// ErrUnavailable means the breaker is open or rejecting half-open probes.
	ErrUnavailable = errors.New("directory: unavailable")
)

// StatusError is an unexpected HTTP status from the directory.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory returned status %d: %s", e.Code, e.Body)
}

// Client calls the directory API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a directory client from configuration.
//
//	dir := directory.NewClient(&cfg.Directory)
//	friends, err := dir.FriendsOf(ctx, "user-123")
func NewClient(cfg *config.DirectoryConfig) *Client {
	return newClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

func newClient(cfg *config.DirectoryConfig, httpClient *http.Client) *Client {
	const cbName = "directory-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.ServiceToken,
		httpClient: httpClient,
		cb:         cb,
	}
}

// State returns the breaker state, for readiness reporting.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

// get fetches path through the breaker and records the lookup.
func (c *Client) get(ctx context.Context, lookup, path string) ([]byte, error) {
	start := time.Now()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	recorded := err
	if errors.Is(err, ErrNotFound) {
		recorded = nil
	}
	metrics.RecordDirectoryLookup(lookup, time.Since(start), recorded)

	return body, err
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read directory response: %w", err)
		}
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

func userPath(id string, suffix string) string {
	return "/internal/users/" + url.PathEscape(id) + suffix
}

func routePath(routeID string, suffix string) string {
	return "/internal/routes/" + url.PathEscape(routeID) + suffix
}
