// Package testutil provides testing utilities for applications that use
// Meshwire. It includes a mock node and helpers for unit testing code
// against the command and event surfaces without touching the network.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/AXI0MH1VE/meshwire/pkg/behaviour"
	"github.com/AXI0MH1VE/meshwire/pkg/identity"
)

// Sentinel errors for mock operations. They mirror the main package's
// lifecycle errors so application error handling can be exercised.
var (
	ErrNotStarted     = errors.New("node not started")
	ErrAlreadyStarted = errors.New("node already started")
	ErrStopped        = errors.New("node has been stopped")
)

// Notification kinds, mirroring the main package's peer event names.
const (
	EventConnected    = "Connected"
	EventDisconnected = "Disconnected"
	EventDiscovered   = "Discovered"
	EventUnreachable  = "Unreachable"
)

// PeerEvent mirrors the main package's PeerEvent for testing.
type PeerEvent struct {
	Kind      string
	PeerID    peer.ID
	Direction string
	Err       error
	Timestamp time.Time
}

// DialRecord records one dial command issued through MockNode.
type DialRecord struct {
	Addr      string
	Timestamp time.Time
}

// PublishedMessage records one publish command issued through MockNode.
type PublishedMessage struct {
	Topic     string
	Data      []byte
	Timestamp time.Time
}

// MockNode is a stand-in for a mesh node in application tests. It
// carries a real generated identity, tracks every command, and lets
// tests inject messages and peer events as if they came off the wire.
//
// MockNode is safe for concurrent use.
type MockNode struct {
	mu sync.RWMutex

	// Identity
	id *identity.Identity

	// State
	started bool
	stopped bool
	addrs   []multiaddr.Multiaddr

	// Peer tracking
	connected map[peer.ID]bool
	routing   map[peer.ID]bool

	// Messaging state
	topics map[string]bool

	// Command tracking
	dials     []DialRecord
	published []PublishedMessage

	// Channels for simulating incoming data
	messages      chan behaviour.Message
	notifications chan PeerEvent

	// Drop accounting, mirroring the real node's lossy delivery
	messagesDropped int

	// Error injection
	peersErr error
}

// NewMockNode creates a mock node with a freshly generated identity.
func NewMockNode() *MockNode {
	id, _ := identity.Generate()
	return &MockNode{
		id:            id,
		connected:     make(map[peer.ID]bool),
		routing:       make(map[peer.ID]bool),
		topics:        make(map[string]bool),
		messages:      make(chan behaviour.Message, 100),
		notifications: make(chan PeerEvent, 100),
	}
}

// Start simulates starting the node. Like the real node, a stopped mock
// refuses to restart.
func (m *MockNode) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.stopped {
		return ErrStopped
	}
	m.started = true
	return nil
}

// Stop simulates stopping the node. The message and notification
// channels are closed, matching the real shutdown contract.
func (m *MockNode) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	m.started = false
	m.stopped = true
	close(m.messages)
	close(m.notifications)
	return nil
}

// PeerID returns the mock node's peer ID, derived from its real
// generated identity.
func (m *MockNode) PeerID() peer.ID {
	return m.id.PeerID()
}

// Addrs returns the mock node's listen addresses.
func (m *MockNode) Addrs() []multiaddr.Multiaddr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.addrs
}

// SetAddrs sets the mock node's listen addresses.
func (m *MockNode) SetAddrs(addrs []multiaddr.Multiaddr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addrs = addrs
}

// Dial records a dial command. Like the real command it is fire and
// forget: nothing is validated and nothing is returned.
func (m *MockNode) Dial(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dials = append(m.dials, DialRecord{Addr: addr, Timestamp: time.Now()})
}

// Publish records a publish command, joining the topic first like the
// real node does.
func (m *MockNode) Publish(topic string, data []byte) {
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics[topic] = true
	m.published = append(m.published, PublishedMessage{
		Topic:     topic,
		Data:      dataCopy,
		Timestamp: time.Now(),
	})
}

// Subscribe joins a topic.
func (m *MockNode) Subscribe(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics[topic] = true
}

// Unsubscribe leaves a topic.
func (m *MockNode) Unsubscribe(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.topics, topic)
}

// Topics returns the currently joined topics.
func (m *MockNode) Topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	return names
}

// Peers returns the simulated connected peers. A test can make it fail
// with SetPeersError.
func (m *MockNode) Peers(ctx context.Context) ([]peer.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.peersErr != nil {
		return nil, m.peersErr
	}
	return m.connectedLocked(), nil
}

// ConnectedPeers returns the simulated connected peers.
func (m *MockNode) ConnectedPeers() []peer.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectedLocked()
}

func (m *MockNode) connectedLocked() []peer.ID {
	result := make([]peer.ID, 0, len(m.connected))
	for id := range m.connected {
		result = append(result, id)
	}
	return result
}

// RoutingPeers returns the simulated routing table contents.
func (m *MockNode) RoutingPeers() []peer.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]peer.ID, 0, len(m.routing))
	for id := range m.routing {
		result = append(result, id)
	}
	return result
}

// Messages returns the channel mock messages are delivered on.
func (m *MockNode) Messages() <-chan behaviour.Message {
	return m.messages
}

// Notifications returns the channel mock peer events are delivered on.
func (m *MockNode) Notifications() <-chan PeerEvent {
	return m.notifications
}

// --- Test Helpers ---

// SimulateConnect simulates a peer connecting.
func (m *MockNode) SimulateConnect(peerID peer.ID, direction string) {
	m.mu.Lock()
	m.connected[peerID] = true
	m.mu.Unlock()

	m.notify(PeerEvent{Kind: EventConnected, PeerID: peerID, Direction: direction, Timestamp: time.Now()})
}

// SimulateDisconnect simulates a peer disconnecting.
func (m *MockNode) SimulateDisconnect(peerID peer.ID) {
	m.mu.Lock()
	delete(m.connected, peerID)
	m.mu.Unlock()

	m.notify(PeerEvent{Kind: EventDisconnected, PeerID: peerID, Timestamp: time.Now()})
}

// SimulateDiscovery simulates local discovery finding a peer: it lands
// in the routing table and produces a notification, without a
// connection.
func (m *MockNode) SimulateDiscovery(peerID peer.ID) {
	m.mu.Lock()
	m.routing[peerID] = true
	m.mu.Unlock()

	m.notify(PeerEvent{Kind: EventDiscovered, PeerID: peerID, Timestamp: time.Now()})
}

// SimulateUnreachable simulates a failed liveness probe.
func (m *MockNode) SimulateUnreachable(peerID peer.ID, err error) {
	m.notify(PeerEvent{Kind: EventUnreachable, PeerID: peerID, Err: err, Timestamp: time.Now()})
}

// SimulateMessage simulates a verified message arriving on a topic. It
// is delivered only if the mock is subscribed, and dropped if the
// buffer is full, mirroring the real node's behaviour.
func (m *MockNode) SimulateMessage(topic string, from peer.ID, data []byte) {
	m.mu.Lock()
	subscribed := m.topics[topic]
	m.mu.Unlock()
	if !subscribed {
		return
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case m.messages <- behaviour.Message{Topic: topic, From: from, Data: dataCopy}:
	default:
		m.mu.Lock()
		m.messagesDropped++
		m.mu.Unlock()
	}
}

func (m *MockNode) notify(ev PeerEvent) {
	select {
	case m.notifications <- ev:
	default:
	}
}

// SetPeersError makes Peers return the given error.
func (m *MockNode) SetPeersError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peersErr = err
}

// Dials returns all dial commands recorded so far.
func (m *MockNode) Dials() []DialRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]DialRecord, len(m.dials))
	copy(result, m.dials)
	return result
}

// Published returns all publish commands recorded so far.
func (m *MockNode) Published() []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]PublishedMessage, len(m.published))
	copy(result, m.published)
	return result
}

// AssertPublished returns the publishes recorded for a topic.
func (m *MockNode) AssertPublished(topic string) []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []PublishedMessage
	for _, msg := range m.published {
		if msg.Topic == topic {
			matches = append(matches, msg)
		}
	}
	return matches
}

// AssertNotPublished reports whether nothing was published on a topic.
func (m *MockNode) AssertNotPublished(topic string) bool {
	return len(m.AssertPublished(topic)) == 0
}

// MessagesDropped returns how many simulated messages were discarded
// because the delivery buffer was full.
func (m *MockNode) MessagesDropped() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.messagesDropped
}

// Reset clears all recorded state. The lifecycle flags and channels are
// left alone so a running mock keeps working.
func (m *MockNode) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = make(map[peer.ID]bool)
	m.routing = make(map[peer.ID]bool)
	m.topics = make(map[string]bool)
	m.dials = nil
	m.published = nil
	m.messagesDropped = 0
	m.peersErr = nil
}
