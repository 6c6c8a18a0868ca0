package meshwire

import (
	"sync"
	"testing"
)

func TestNopMetrics_Implements_Metrics(t *testing.T) {
	var _ Metrics = NopMetrics{}
}

func TestNopMetrics_Methods_DoNotPanic(t *testing.T) {
	m := NopMetrics{}

	// Should not panic with any arguments
	m.ConnectionOpened("inbound")
	m.ConnectionOpened("outbound")
	m.ConnectionClosed("inbound")
	m.ConnectionClosed("outbound")
	m.DialAttempt("success")
	m.DialAttempt("failure")
	m.DialAttempt("invalid_addr")
	m.MessagePublished("chat", 1024)
	m.MessageReceived("chat", 2048)
	m.MessageDropped()
	m.PeerDiscovered()
	m.RoutingTableSize(3)
	m.PingRTT(0.042)
	m.PingFailure()
	m.CommandReceived("Dial")
	m.EventObserved("PeerConnected")
	m.EventDropped()
}

// recordingMetrics counts every metric call by name for assertions.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (r *recordingMetrics) bump(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

// Count returns how many times the named metric was recorded.
func (r *recordingMetrics) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func (r *recordingMetrics) ConnectionOpened(direction string) { r.bump("connection_opened:" + direction) }
func (r *recordingMetrics) ConnectionClosed(direction string) { r.bump("connection_closed:" + direction) }
func (r *recordingMetrics) DialAttempt(result string)         { r.bump("dial_attempt:" + result) }
func (r *recordingMetrics) MessagePublished(topic string, bytes int) {
	r.bump("message_published:" + topic)
}
func (r *recordingMetrics) MessageReceived(topic string, bytes int) {
	r.bump("message_received:" + topic)
}
func (r *recordingMetrics) MessageDropped()           { r.bump("message_dropped") }
func (r *recordingMetrics) PeerDiscovered()           { r.bump("peer_discovered") }
func (r *recordingMetrics) RoutingTableSize(size int) { r.bump("routing_table_size") }
func (r *recordingMetrics) PingRTT(seconds float64)   { r.bump("ping_rtt") }
func (r *recordingMetrics) PingFailure()              { r.bump("ping_failure") }
func (r *recordingMetrics) CommandReceived(kind string) {
	r.bump("command_received:" + kind)
}
func (r *recordingMetrics) EventObserved(kind string) { r.bump("event_observed:" + kind) }
func (r *recordingMetrics) EventDropped()             { r.bump("event_dropped") }

func TestRecordingMetrics_Implements_Metrics(t *testing.T) {
	var _ Metrics = newRecordingMetrics()
}

func TestRecordingMetrics_Counts(t *testing.T) {
	m := newRecordingMetrics()

	m.DialAttempt("success")
	m.DialAttempt("success")
	m.DialAttempt("failure")
	m.CommandReceived("Publish")
	m.PingFailure()

	if got := m.Count("dial_attempt:success"); got != 2 {
		t.Errorf("dial_attempt:success = %d, want 2", got)
	}
	if got := m.Count("dial_attempt:failure"); got != 1 {
		t.Errorf("dial_attempt:failure = %d, want 1", got)
	}
	if got := m.Count("command_received:Publish"); got != 1 {
		t.Errorf("command_received:Publish = %d, want 1", got)
	}
	if got := m.Count("never_recorded"); got != 0 {
		t.Errorf("never_recorded = %d, want 0", got)
	}
}

func TestRecordingMetrics_ConcurrentUse(t *testing.T) {
	m := newRecordingMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				m.PeerDiscovered()
			}
		}()
	}
	wg.Wait()

	if got := m.Count("peer_discovered"); got != 2000 {
		t.Errorf("peer_discovered = %d, want 2000", got)
	}
}
