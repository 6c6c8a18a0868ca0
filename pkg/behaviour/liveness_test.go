package behaviour

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestLivenessProbesConnectedPeers(t *testing.T) {
	mock := clock.NewMock()
	cfg := Config{PingInterval: 15 * time.Second, Clock: mock}

	ha := newTestHost(t)
	hb := newTestHost(t)
	sa := newTestSet(t, ha, cfg)
	newTestSet(t, hb, Config{})

	connect(t, ha, hb)

	sa.Liveness.start()
	// Let the sweep goroutine install its ticker before advancing.
	time.Sleep(50 * time.Millisecond)
	mock.Add(15 * time.Second)

	ev := waitEvent(t, sa.Events(), EventPingResult, 10*time.Second)
	if ev.Ping.Peer != hb.ID() {
		t.Errorf("probed peer = %s, want %s", ev.Ping.Peer, hb.ID())
	}
	if ev.Ping.Err != nil {
		t.Errorf("probe failed: %v", ev.Ping.Err)
	}
	if ev.Ping.RTT <= 0 {
		t.Errorf("round trip = %v, want > 0", ev.Ping.RTT)
	}
}

func TestLivenessQuietWithoutPeers(t *testing.T) {
	mock := clock.NewMock()
	cfg := Config{PingInterval: 15 * time.Second, Clock: mock}

	h := newTestHost(t)
	s := newTestSet(t, h, cfg)

	s.Liveness.start()
	time.Sleep(50 * time.Millisecond)
	mock.Add(15 * time.Second)

	select {
	case ev := <-s.Events():
		if ev.Kind == EventPingResult {
			t.Fatal("probe result with no connected peers")
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestLivenessNoProbesBeforeStart(t *testing.T) {
	mock := clock.NewMock()
	cfg := Config{PingInterval: 15 * time.Second, Clock: mock}

	ha := newTestHost(t)
	hb := newTestHost(t)
	sa := newTestSet(t, ha, cfg)
	newTestSet(t, hb, Config{})

	connect(t, ha, hb)
	mock.Add(time.Minute)

	select {
	case ev := <-sa.Events():
		if ev.Kind == EventPingResult {
			t.Fatal("probe result before Start")
		}
	case <-time.After(300 * time.Millisecond):
	}
}
