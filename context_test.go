package meshwire

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Context handling tests for the query API and dial timeouts.

// TestQuery_ContextCancelled verifies that a query gives up when its
// context dies while the answer is still pending. The commander here
// has no loop behind it, so the reply can never arrive.
func TestQuery_ContextCancelled(t *testing.T) {
	c := newCommander(4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if _, err := c.Peers(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Peers() = %v, want context.Canceled", err)
	}
	if _, err := c.PeerID(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("PeerID() = %v, want context.Canceled", err)
	}
}

// TestQuery_ContextDeadline verifies deadline expiry surfaces as
// DeadlineExceeded rather than hanging.
func TestQuery_ContextDeadline(t *testing.T) {
	c := newCommander(4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Peers(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Peers() = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("query should give up promptly, took %v", elapsed)
	}
}

// TestQuery_AnswersWithinDeadline verifies a live node answers well
// inside a generous deadline.
func TestQuery_AnswersWithinDeadline(t *testing.T) {
	node := startTestNode(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := node.Commander().PeerID(ctx)
	if err != nil {
		t.Fatalf("PeerID() failed: %v", err)
	}
	if id != node.PeerID() {
		t.Errorf("PeerID() = %v, want %v", id, node.PeerID())
	}
}

// TestDial_TimeoutBoundsAttempt verifies the configured dial timeout
// cuts off attempts against unresponsive addresses.
func TestDial_TimeoutBoundsAttempt(t *testing.T) {
	node := startTestNode(t, WithDialTimeout(100*time.Millisecond))
	target := generateTestIdentity(t)

	// 203.0.113.0/24 is reserved for documentation and never routed.
	node.Commander().Dial("/ip4/203.0.113.1/tcp/4001/p2p/" + target.PeerID().String())

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		stats := node.Stats()
		if stats.DialsFailed == 1 {
			if stats.DialsAttempted != 1 {
				t.Errorf("DialsAttempted = %d, want 1", stats.DialsAttempted)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("dial against a blackholed address never timed out")
}

// TestStop_UnblocksNothingPending verifies Stop completes while dials
// are still in flight.
func TestStop_InFlightDial(t *testing.T) {
	node := startTestNode(t, WithDialTimeout(200*time.Millisecond))
	target := generateTestIdentity(t)

	node.Commander().Dial("/ip4/203.0.113.1/tcp/4001/p2p/" + target.PeerID().String())

	done := make(chan error, 1)
	go func() { done <- node.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stop() = %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Stop() hung on an in-flight dial")
	}
}
