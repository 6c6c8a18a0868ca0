package meshwire

// Metrics defines the metrics collection interface for Meshwire.
// It is designed to be compatible with Prometheus and other metrics systems.
//
// Implementations must be safe for concurrent use.
//
// Metric naming convention:
//   - Counters: <name>_total (e.g., dials_total)
//   - Histograms: <name>_seconds or <name>_bytes (e.g., ping_rtt_seconds)
//   - Gauges: current_<name> (e.g., current_routing_table_size)
type Metrics interface {
	// Connection metrics

	// ConnectionOpened increments when a connection is established.
	// Labels: direction (inbound, outbound)
	ConnectionOpened(direction string)

	// ConnectionClosed increments when the last connection to a peer closes.
	// Labels: direction (inbound, outbound, unknown)
	ConnectionClosed(direction string)

	// DialAttempt records the outcome of a dial command.
	// Labels: result (success, failure, invalid_addr)
	DialAttempt(result string)

	// Messaging metrics

	// MessagePublished records a message being published.
	// Labels: topic
	MessagePublished(topic string, bytes int)

	// MessageReceived records a verified message arriving.
	// Labels: topic
	MessageReceived(topic string, bytes int)

	// MessageDropped records a received message discarded because the
	// delivery buffer was full.
	MessageDropped()

	// Discovery and routing metrics

	// PeerDiscovered increments when a peer is found on the local network.
	PeerDiscovered()

	// RoutingTableSize records the routing table size after a change.
	RoutingTableSize(size int)

	// Liveness metrics

	// PingRTT records a successful probe round trip.
	PingRTT(seconds float64)

	// PingFailure increments when a probe fails or times out.
	PingFailure()

	// Actor metrics

	// CommandReceived records a command entering the actor loop.
	// Labels: kind (the command kind)
	CommandReceived(kind string)

	// EventObserved records an event handled by the actor loop.
	// Labels: kind (the event kind)
	EventObserved(kind string)

	// EventDropped records an advisory event being dropped due to buffer full.
	EventDropped()
}

// NopMetrics is a no-op metrics implementation that discards all metrics.
// It is the default when no metrics collector is configured.
type NopMetrics struct{}

// Ensure NopMetrics implements Metrics.
var _ Metrics = NopMetrics{}

// ConnectionOpened implements Metrics.ConnectionOpened (no-op).
func (NopMetrics) ConnectionOpened(direction string) {}

// ConnectionClosed implements Metrics.ConnectionClosed (no-op).
func (NopMetrics) ConnectionClosed(direction string) {}

// DialAttempt implements Metrics.DialAttempt (no-op).
func (NopMetrics) DialAttempt(result string) {}

// MessagePublished implements Metrics.MessagePublished (no-op).
func (NopMetrics) MessagePublished(topic string, bytes int) {}

// MessageReceived implements Metrics.MessageReceived (no-op).
func (NopMetrics) MessageReceived(topic string, bytes int) {}

// MessageDropped implements Metrics.MessageDropped (no-op).
func (NopMetrics) MessageDropped() {}

// PeerDiscovered implements Metrics.PeerDiscovered (no-op).
func (NopMetrics) PeerDiscovered() {}

// RoutingTableSize implements Metrics.RoutingTableSize (no-op).
func (NopMetrics) RoutingTableSize(size int) {}

// PingRTT implements Metrics.PingRTT (no-op).
func (NopMetrics) PingRTT(seconds float64) {}

// PingFailure implements Metrics.PingFailure (no-op).
func (NopMetrics) PingFailure() {}

// CommandReceived implements Metrics.CommandReceived (no-op).
func (NopMetrics) CommandReceived(kind string) {}

// EventObserved implements Metrics.EventObserved (no-op).
func (NopMetrics) EventObserved(kind string) {}

// EventDropped implements Metrics.EventDropped (no-op).
func (NopMetrics) EventDropped() {}
