package meshwire

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

// DebugState represents the complete state of a Node for debugging purposes.
type DebugState struct {
	// Node identity
	PeerID    string `json:"peer_id"`
	PublicKey string `json:"public_key"`

	// Listen addresses
	ListenAddrs []string `json:"listen_addrs"`

	// Protocol version
	Version string `json:"version"`

	// Whether the transport pipeline is gated by a pre-shared key
	PrivateNetwork bool `json:"private_network"`

	// Joined pubsub topics
	Topics []string `json:"topics,omitempty"`

	// Routing table summary
	Routing DebugRouting `json:"routing"`

	// Configuration
	Config DebugConfig `json:"config"`

	// Activity summary
	ConnectedPeers   int    `json:"connected_peers"`
	MessagesReceived int64  `json:"messages_received"`
	MessagesDropped  int64  `json:"messages_dropped"`
	EventsDropped    uint64 `json:"events_dropped"`

	// Timestamp when state was captured
	CapturedAt time.Time `json:"captured_at"`
}

// DebugRouting represents routing table state for debugging.
type DebugRouting struct {
	TableSize int      `json:"table_size"`
	PeerIDs   []string `json:"peer_ids,omitempty"`
}

// DebugConfig represents configuration summary for debugging.
type DebugConfig struct {
	HeartbeatInterval string `json:"heartbeat_interval"`
	PingInterval      string `json:"ping_interval"`
	IdleTimeout       string `json:"idle_timeout"`
	DialTimeout       string `json:"dial_timeout"`
	CommandBuffer     int    `json:"command_buffer"`
	MessageBuffer     int    `json:"message_buffer"`
	MaxMessageSize    int    `json:"max_message_size"`
}

// DumpState captures the current state of the node for debugging.
// This is useful for troubleshooting connectivity issues.
func (n *Node) DumpState() *DebugState {
	state := &DebugState{
		PeerID:         n.PeerID().String(),
		Version:        n.Version().String(),
		PrivateNetwork: n.Private(),
		CapturedAt:     time.Now(),
	}

	if raw, err := n.PublicKey().Raw(); err == nil {
		state.PublicKey = fmt.Sprintf("%x", raw)
	}

	// Listen addresses
	for _, addr := range n.Addrs() {
		state.ListenAddrs = append(state.ListenAddrs, addr.String())
	}

	state.Topics = n.Topics()
	state.Routing = n.dumpRouting()
	state.Config = n.dumpConfig()

	stats := n.Stats()
	state.ConnectedPeers = stats.ConnectedPeers
	state.MessagesReceived = stats.MessagesReceived
	state.MessagesDropped = stats.MessagesDropped
	state.EventsDropped = stats.EventsDropped

	return state
}

// dumpRouting returns routing table debug info.
func (n *Node) dumpRouting() DebugRouting {
	peers := n.RoutingPeers()

	r := DebugRouting{TableSize: len(peers)}
	for _, p := range peers {
		r.PeerIDs = append(r.PeerIDs, p.String())
	}
	return r
}

// dumpConfig returns configuration debug info.
func (n *Node) dumpConfig() DebugConfig {
	return DebugConfig{
		HeartbeatInterval: n.config.HeartbeatInterval.String(),
		PingInterval:      n.config.PingInterval.String(),
		IdleTimeout:       n.config.IdleTimeout.String(),
		DialTimeout:       n.config.DialTimeout.String(),
		CommandBuffer:     n.config.CommandBuffer,
		MessageBuffer:     n.config.MessageBuffer,
		MaxMessageSize:    n.config.MaxMessageSize,
	}
}

// DumpStateJSON returns the node state as formatted JSON.
func (n *Node) DumpStateJSON() (string, error) {
	state := n.DumpState()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	return string(data), nil
}

// DumpStateString returns a human-readable string representation of the node state.
func (n *Node) DumpStateString() string {
	state := n.DumpState()
	var sb strings.Builder

	sb.WriteString("=== Meshwire Node Debug State ===\n\n")

	// Identity
	sb.WriteString("IDENTITY:\n")
	sb.WriteString(fmt.Sprintf("  Peer ID:    %s\n", state.PeerID))
	if len(state.PublicKey) >= 16 {
		sb.WriteString(fmt.Sprintf("  Public Key: %s...\n", state.PublicKey[:16]))
	}
	sb.WriteString(fmt.Sprintf("  Version:    %s\n", state.Version))
	sb.WriteString(fmt.Sprintf("  Private:    %t\n", state.PrivateNetwork))
	sb.WriteString("\n")

	// Listen addresses
	sb.WriteString("LISTEN ADDRESSES:\n")
	if len(state.ListenAddrs) == 0 {
		sb.WriteString("  (none)\n")
	} else {
		for _, addr := range state.ListenAddrs {
			sb.WriteString(fmt.Sprintf("  - %s\n", addr))
		}
	}
	sb.WriteString("\n")

	// Topics
	sb.WriteString("TOPICS:\n")
	if len(state.Topics) == 0 {
		sb.WriteString("  (none)\n")
	} else {
		for _, topic := range state.Topics {
			sb.WriteString(fmt.Sprintf("  - %s\n", topic))
		}
	}
	sb.WriteString("\n")

	// Routing table
	sb.WriteString("ROUTING TABLE:\n")
	sb.WriteString(fmt.Sprintf("  Size: %d peers\n", state.Routing.TableSize))
	sb.WriteString("\n")

	// Config
	sb.WriteString("CONFIGURATION:\n")
	sb.WriteString(fmt.Sprintf("  Heartbeat Interval: %s\n", state.Config.HeartbeatInterval))
	sb.WriteString(fmt.Sprintf("  Ping Interval:      %s\n", state.Config.PingInterval))
	sb.WriteString(fmt.Sprintf("  Idle Timeout:       %s\n", state.Config.IdleTimeout))
	sb.WriteString(fmt.Sprintf("  Dial Timeout:       %s\n", state.Config.DialTimeout))
	sb.WriteString(fmt.Sprintf("  Command Buffer:     %d\n", state.Config.CommandBuffer))
	sb.WriteString(fmt.Sprintf("  Message Buffer:     %d\n", state.Config.MessageBuffer))
	sb.WriteString(fmt.Sprintf("  Max Message Size:   %d bytes\n", state.Config.MaxMessageSize))
	sb.WriteString("\n")

	// Activity
	sb.WriteString("ACTIVITY:\n")
	sb.WriteString(fmt.Sprintf("  Connected peers:   %d\n", state.ConnectedPeers))
	sb.WriteString(fmt.Sprintf("  Messages received: %d\n", state.MessagesReceived))
	sb.WriteString(fmt.Sprintf("  Messages dropped:  %d\n", state.MessagesDropped))
	sb.WriteString(fmt.Sprintf("  Events dropped:    %d\n", state.EventsDropped))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Captured at: %s\n", state.CapturedAt.Format(time.RFC3339)))
	sb.WriteString("=================================\n")

	return sb.String()
}

// ConnectionSummary returns a brief summary of connection and routing state.
func (n *Node) ConnectionSummary() map[string]int {
	return map[string]int{
		"connected": len(n.ConnectedPeers()),
		"routing":   len(n.RoutingPeers()),
	}
}

// PeerInfo returns basic information about a peer.
func (n *Node) PeerInfo(peerID peer.ID) (map[string]any, error) {
	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s == nil {
		return nil, ErrNodeNotStarted
	}

	info := map[string]any{
		"peer_id":   peerID.String(),
		"connected": s.Host().Network().Connectedness(peerID) == network.Connected,
		"routed":    s.Behaviours().Routing.Contains(peerID),
	}

	if addrs := s.Host().Peerstore().Addrs(peerID); len(addrs) > 0 {
		var out []string
		for _, ma := range addrs {
			out = append(out, ma.String())
		}
		info["addresses"] = out
	}

	if rtt, ok := n.stats.rtt.Peek(peerID); ok {
		info["last_rtt"] = rtt.String()
	}

	return info, nil
}
