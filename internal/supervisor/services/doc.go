// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package services adapts Waypoint components to suture.Service.

Each wrapper turns a component lifecycle into Serve(ctx) and names itself via
fmt.Stringer for supervisor logs:

  - HTTPServerService: ListenAndServe/Shutdown of the HTTP listener
  - WebSocketServerService: readiness and session teardown of the websocket server
  - EmbeddedNATSService: health watch of the in-process broker

Wrappers depend on small interfaces rather than concrete types so they can be
tested with fakes.
*/
package services
