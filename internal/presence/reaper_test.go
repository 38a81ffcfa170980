// Waypoint - Real-time Presence and Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package presence

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestReaper_UnregistersAndRecordsLastSeen(t *testing.T) {
	h := newHarness(t)
	bob := h.connect("bob")

	h.reaper.Teardown("bob", bob)()
	h.reaper.Wait()

	if h.registry.IsOnline("bob") {
		t.Error("bob should be offline after teardown")
	}
	got := h.lastSeen.recorded()
	if len(got) != 1 {
		t.Fatalf("last-seen updates = %d, want 1", len(got))
	}
	if got[0].id != "bob" || !got[0].at.Equal(testNow) {
		t.Errorf("last-seen = %+v", got[0])
	}
}

func TestReaper_TeardownRunsOnce(t *testing.T) {
	h := newHarness(t)
	bob := h.connect("bob")
	reap := h.reaper.Teardown("bob", bob)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reap()
		}()
	}
	wg.Wait()
	h.reaper.Wait()

	if n := len(h.lastSeen.recorded()); n != 1 {
		t.Errorf("last-seen updates = %d, want 1", n)
	}
}

func TestReaper_StaleDisconnectKeepsNewerSession(t *testing.T) {
	h := newHarness(t)
	first := h.connect("bob")
	second := newFakeConn("bob-conn-2")
	h.registry.Register("bob", second)

	h.reaper.Teardown("bob", first)()
	h.reaper.Wait()

	conn, ok := h.registry.Lookup("bob")
	if !ok || conn != second {
		t.Fatal("stale teardown removed the newer registration")
	}
	if n := len(h.lastSeen.recorded()); n != 0 {
		t.Errorf("stale teardown recorded last-seen %d time(s), want 0", n)
	}
}

func TestReaper_DoesNotBlockOnLastSeen(t *testing.T) {
	h := newHarness(t)
	h.lastSeen.block = make(chan struct{})
	bob := h.connect("bob")

	done := make(chan struct{})
	go func() {
		h.reaper.Teardown("bob", bob)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("teardown blocked on the last-seen update")
	}
	if h.registry.IsOnline("bob") {
		t.Error("registry should be updated before last-seen completes")
	}

	close(h.lastSeen.block)
	h.reaper.Wait()
	if n := len(h.lastSeen.recorded()); n != 1 {
		t.Errorf("last-seen updates = %d, want 1", n)
	}
}

func TestReaper_LastSeenFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	h.lastSeen.err = errors.New("broker down")
	bob := h.connect("bob")

	h.reaper.Teardown("bob", bob)()
	h.reaper.Wait()

	if h.registry.IsOnline("bob") {
		t.Error("bob should be offline even when last-seen fails")
	}
}
