package meshwire

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerEventKind identifies the kind of peer lifecycle notification.
type PeerEventKind int

const (
	// PeerConnected indicates a connection to the peer was established.
	PeerConnected PeerEventKind = iota

	// PeerDisconnected indicates the last connection to the peer closed.
	PeerDisconnected

	// PeerDiscovered indicates the peer was found on the local network.
	PeerDiscovered

	// PeerUnreachable indicates a liveness probe to the peer failed.
	PeerUnreachable
)

// String returns a human-readable representation of the event kind.
func (k PeerEventKind) String() string {
	switch k {
	case PeerConnected:
		return "Connected"
	case PeerDisconnected:
		return "Disconnected"
	case PeerDiscovered:
		return "Discovered"
	case PeerUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// PeerEvent represents a peer lifecycle notification. These events are
// emitted by the node to inform the application of connection,
// discovery, and liveness changes without it having to poll.
type PeerEvent struct {
	// Kind is the kind of notification.
	Kind PeerEventKind

	// PeerID is the peer this event relates to.
	PeerID peer.ID

	// Direction is "inbound" or "outbound" for connection events,
	// empty otherwise.
	Direction string

	// Error carries the probe failure for PeerUnreachable events.
	// Nil for all other kinds.
	Error error

	// Timestamp is when this event occurred.
	Timestamp time.Time
}

// IsError returns true if this event represents an error condition.
func (e PeerEvent) IsError() bool {
	return e.Error != nil
}
