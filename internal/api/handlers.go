// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/presence"
)

// Readiness reports whether the websocket server accepts sessions.
type Readiness interface {
	Running() bool
}

// PresenceStatus is the body of GET /api/v1/presence/{userID}.
type PresenceStatus struct {
	UserID models.UserID `json:"userId"`
	Online bool          `json:"online"`
	Since  *time.Time    `json:"since,omitempty"`
}

// PresenceSummary is the body of GET /api/v1/presence.
type PresenceSummary struct {
	Online int `json:"online"`
}

// Handler serves the REST endpoints.
type Handler struct {
	registry      *presence.Registry
	graph         presence.SocialGraph
	ready         Readiness
	lookupTimeout time.Duration
	startTime     time.Time
}

// NewHandler creates the REST handler.
func NewHandler(registry *presence.Registry, graph presence.SocialGraph, ready Readiness, lookupTimeout time.Duration) *Handler {
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}
	return &Handler{
		registry:      registry,
		graph:         graph,
		ready:         ready,
		lookupTimeout: lookupTimeout,
		startTime:     time.Now(),
	}
}

// HealthLive handles liveness probes. It always succeeds while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes: 200 only while the websocket server runs.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || !h.ready.Running() {
		WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "websocket server not running")
		return
	}
	WriteSuccess(w, r, map[string]interface{}{
		"ready":       true,
		"connections": h.registry.Count(),
	})
}

// PresenceCount returns the number of online identities.
func (h *Handler) PresenceCount(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, PresenceSummary{Online: h.registry.Count()})
}

// PresenceOf returns whether a user is online. Only the caller and the
// caller's ACCEPTED friends are visible; anyone else is reported as not
// found so that blocked or unrelated users learn nothing.
func (h *Handler) PresenceOf(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, auth.ErrNoCredentials.Error())
		return
	}
	target := models.UserID(chi.URLParam(r, "userID"))

	if target != identity.UserID {
		visible, err := h.isFriend(r.Context(), identity.UserID, target)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Friend lookup failed for presence query")
			WriteError(w, r, http.StatusServiceUnavailable, ErrCodeExternalServiceFail, "friend lookup failed")
			return
		}
		if !visible {
			WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
	}

	status := PresenceStatus{UserID: target}
	if record, online := h.registry.Record(target); online {
		since := record.ConnectedAt.UTC()
		status.Online = true
		status.Since = &since
	}
	WriteSuccess(w, r, status)
}

func (h *Handler) isFriend(ctx context.Context, viewer, target models.UserID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
	defer cancel()

	friends, err := h.graph.FriendsOf(ctx, viewer)
	if err != nil {
		return false, err
	}
	for _, id := range friends {
		if id == target {
			return true, nil
		}
	}
	return false, nil
}
