// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package websocket is the client transport of the presence layer.

Each authenticated upgrade becomes a Session: a gorilla/websocket connection
with two goroutines and a bounded outbound queue.

  - readPump: reads frames, applies the per-connection event rate limit and
    in-flight bound, and hands each frame to the EventHandler
  - writePump: drains the outbound queue, sends pings, writes the close frame

A Session is the presence.Conn registered for its identity, so fan-out from
any other connection enqueues onto it through Send, which never blocks.

Server owns the upgrade, registration of the Session in the connection
registry, and the teardown that hands the Session to the reaper. It tracks
live sessions so that RunWithContext can close them all on shutdown:

	srv := websocket.NewServer(registry, dispatcher, reaper, cfg)
	go srv.RunWithContext(ctx)
	r.With(gate.Middleware).Get("/ws", srv.ServeHTTP)

Frames are JSON envelopes of the form {"type": "...", "data": {...}}.
Every inbound event is answered on the same connection with either its
acknowledgement or an `error` frame; the connection stays open on per-event
failures.
*/
package websocket
