// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/waypoint/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestLocationUpdate_CoordinateRanges(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		wantValid bool
		wantField string
	}{
		{"origin", 0, 0, true, ""},
		{"san francisco", 37.77, -122.41, true, ""},
		{"north pole", 90, 0, true, ""},
		{"south pole", -90, 0, true, ""},
		{"antimeridian east", 0, 180, true, ""},
		{"antimeridian west", 0, -180, true, ""},
		{"fractional edge", -89.999999, 179.999999, true, ""},
		{"latitude above range", 90.0001, 0, false, "latitude"},
		{"latitude below range", -91, 0, false, "latitude"},
		{"longitude above range", 0, 180.5, false, "longitude"},
		{"longitude below range", 0, -181, false, "longitude"},
		{"huge latitude", 1e21, 0, false, "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := models.LocationUpdate{Latitude: f64(tt.lat), Longitude: f64(tt.lng)}
			verr := ValidateStruct(&update)

			if tt.wantValid {
				if verr != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() expected error")
			}
			if !verr.HasField(tt.wantField) {
				t.Errorf("expected failure on %q, got %v", tt.wantField, verr)
			}
		})
	}
}

func TestLocationUpdate_MissingCoordinates(t *testing.T) {
	verr := ValidateStruct(&models.LocationUpdate{Latitude: f64(10)})
	if verr == nil {
		t.Fatal("expected error for missing longitude")
	}
	if verr.Error() != "longitude is required" {
		t.Errorf("Error() = %q, want %q", verr.Error(), "longitude is required")
	}
}

func TestRouteProgress_Validation(t *testing.T) {
	valid := models.RouteProgressUpdate{
		RouteID:         "route-1",
		Progress:        f64(42),
		CurrentLocation: models.Location{Latitude: f64(1), Longitude: f64(2)},
	}
	if verr := ValidateStruct(&valid); verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}

	tests := []struct {
		name      string
		mutate    func(*models.RouteProgressUpdate)
		wantField string
	}{
		{"progress above 100", func(u *models.RouteProgressUpdate) { u.Progress = f64(100.5) }, "progress"},
		{"negative progress", func(u *models.RouteProgressUpdate) { u.Progress = f64(-1) }, "progress"},
		{"missing route", func(u *models.RouteProgressUpdate) { u.RouteID = "" }, "routeId"},
		{"bad current location", func(u *models.RouteProgressUpdate) {
			u.CurrentLocation = models.Location{Latitude: f64(95), Longitude: f64(0)}
		}, "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.mutate(&u)
			verr := ValidateStruct(&u)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if !verr.HasField(tt.wantField) {
				t.Errorf("expected failure on %q, got %v", tt.wantField, verr)
			}
		})
	}
}

func TestETAShare_RecipientList(t *testing.T) {
	base := models.ETAShare{
		RouteID:          "route-1",
		EstimatedArrival: "2026-10-19T18:00:00Z",
		CurrentLocation:  models.Location{Latitude: f64(1), Longitude: f64(2)},
	}

	tests := []struct {
		name       string
		recipients []models.UserID
		wantValid  bool
	}{
		{"omitted", nil, false},
		{"empty", []models.UserID{}, false},
		{"blank id", []models.UserID{""}, false},
		{"one recipient", []models.UserID{"u2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := base
			share.RecipientIDs = tt.recipients
			verr := ValidateStruct(&share)
			if tt.wantValid && verr != nil {
				t.Fatalf("unexpected error: %v", verr)
			}
			if !tt.wantValid && verr == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	share := models.ETAShare{
		RouteID:          "r",
		RecipientIDs:     []models.UserID{},
		EstimatedArrival: "soon",
		CurrentLocation:  models.Location{Latitude: f64(1), Longitude: f64(2)},
	}
	verr := ValidateStruct(&share)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(verr.Error(), "recipientIds must contain at least 1 item(s)") {
		t.Errorf("unexpected message: %q", verr.Error())
	}

	verr = ValidateStruct(&models.LocationUpdate{Latitude: f64(-91), Longitude: f64(0)})
	if verr == nil || verr.Error() != "latitude must be a valid latitude (-90 to 90)" {
		t.Errorf("unexpected message: %v", verr)
	}
}
