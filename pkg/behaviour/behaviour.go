// Package behaviour bundles the protocol machines a mesh node runs on
// top of its connections: signed publish/subscribe messaging, a
// Kademlia routing table, local-network peer discovery, and periodic
// liveness probing.
//
// The four machines produce a single fan-in stream of tagged Events.
// Consumers read that stream from one goroutine; they never interact
// with the underlying services concurrently except through the methods
// exposed here.
package behaviour

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
)

// Defaults applied by Config.applyDefaults.
const (
	// DefaultProtocolPrefix namespaces the routing protocol so nodes
	// from unrelated deployments ignore each other's queries.
	DefaultProtocolPrefix = protocol.ID("/meshwire")

	// DefaultServiceTag is the local-network discovery service name.
	DefaultServiceTag = "meshwire"

	// DefaultHeartbeatInterval is the gossip mesh maintenance cadence.
	DefaultHeartbeatInterval = time.Second

	// DefaultPingInterval is how often connected peers are probed.
	DefaultPingInterval = 15 * time.Second

	// DefaultPingTimeout bounds a single liveness probe.
	DefaultPingTimeout = 10 * time.Second

	// DefaultEventBuffer is the capacity of the fan-in event channel.
	DefaultEventBuffer = 64
)

// maxConcurrentProbes bounds parallel liveness probes per sweep.
const maxConcurrentProbes = 8

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventMessage is a verified publish/subscribe message from a peer.
	EventMessage EventKind = iota

	// EventPeersFound reports peers discovered on the local network.
	EventPeersFound

	// EventRoutingUpdated reports a peer admitted to the routing table.
	EventRoutingUpdated

	// EventPingResult reports the outcome of one liveness probe.
	EventPingResult
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "Message"
	case EventPeersFound:
		return "PeersFound"
	case EventRoutingUpdated:
		return "RoutingUpdated"
	case EventPingResult:
		return "PingResult"
	default:
		return "Unknown"
	}
}

// Message is a received publish/subscribe message. The sender identity
// is authenticated: unsigned or mis-signed messages are rejected before
// they reach this type.
type Message struct {
	// Topic the message was published on.
	Topic string

	// From is the original publisher, not the forwarding peer.
	From peer.ID

	// Data is the application payload.
	Data []byte

	// Seq is the publisher-assigned sequence number, zero if absent.
	Seq uint64
}

// RoutingUpdate describes a routing table admission.
type RoutingUpdate struct {
	// Peer that entered the table.
	Peer peer.ID

	// TableSize after the admission.
	TableSize int
}

// PingResult is the outcome of probing one connected peer.
type PingResult struct {
	// Peer that was probed.
	Peer peer.ID

	// RTT is the measured round trip, valid only when Err is nil.
	RTT time.Duration

	// Err is non-nil when the probe failed or timed out.
	Err error
}

// Event is the tagged union carried on the fan-in stream. Kind selects
// which pointer field is populated; the others are nil.
type Event struct {
	Kind      EventKind
	Message   *Message
	Peers     []peer.AddrInfo
	Routing   *RoutingUpdate
	Ping      *PingResult
	Timestamp time.Time
}

// Config controls the behaviour set. The zero value is usable; empty
// fields take the package defaults.
type Config struct {
	// ProtocolPrefix namespaces routing queries.
	ProtocolPrefix protocol.ID

	// ServiceTag names the local-network discovery service.
	ServiceTag string

	// HeartbeatInterval is the gossip mesh maintenance cadence.
	HeartbeatInterval time.Duration

	// PingInterval is the liveness sweep cadence.
	PingInterval time.Duration

	// PingTimeout bounds each individual probe.
	PingTimeout time.Duration

	// EventBuffer is the fan-in channel capacity.
	EventBuffer int

	// OnDrop, when set, is called once for every advisory event
	// discarded because the consumer fell behind.
	OnDrop func()

	// Clock drives the liveness sweep. Tests inject a mock.
	Clock clock.Clock
}

func (c *Config) applyDefaults() {
	if c.ProtocolPrefix == "" {
		c.ProtocolPrefix = DefaultProtocolPrefix
	}
	if c.ServiceTag == "" {
		c.ServiceTag = DefaultServiceTag
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// emitter delivers events from one behaviour into the shared stream.
//
// send blocks until the consumer takes the event, applying backpressure
// to the producing protocol. trySend drops when the buffer is full and
// counts the drop; it exists for events produced synchronously from the
// consuming goroutine itself, where a blocking send would deadlock.
type emitter struct {
	ch      chan Event
	done    chan struct{}
	dropped *atomic.Uint64
	onDrop  func()
}

func (e *emitter) send(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case e.ch <- ev:
	case <-e.done:
	}
}

func (e *emitter) trySend(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case e.ch <- ev:
	case <-e.done:
	default:
		e.dropped.Add(1)
		if e.onDrop != nil {
			e.onDrop()
		}
	}
}

// Set is the assembled behaviour bundle for one host.
type Set struct {
	// Messaging is the signed publish/subscribe service.
	Messaging *Messaging

	// Routing is the Kademlia routing table service.
	Routing *Routing

	// Discovery finds peers on the local network.
	Discovery *Discovery

	// Liveness probes connected peers.
	Liveness *Liveness

	events    chan Event
	done      chan struct{}
	dropped   atomic.Uint64
	closeOnce sync.Once
	closeErr  error
}

// NewSet constructs all four behaviours against h. The set is inert
// until Start; nothing is advertised and no probes run before then.
// ctx bounds the lifetime of the gossip and routing services; cancel
// it after Close to release their internal goroutines.
func NewSet(ctx context.Context, h host.Host, cfg Config) (*Set, error) {
	if h == nil {
		return nil, errors.New("behaviour set requires a host")
	}
	cfg.applyDefaults()

	s := &Set{
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
	}
	em := &emitter{ch: s.events, done: s.done, dropped: &s.dropped, onDrop: cfg.OnDrop}

	messaging, err := newMessaging(ctx, h, cfg, em)
	if err != nil {
		return nil, fmt.Errorf("building messaging behaviour: %w", err)
	}
	routing, err := newRouting(ctx, h, cfg.ProtocolPrefix, em)
	if err != nil {
		return nil, fmt.Errorf("building routing behaviour: %w", err)
	}

	s.Messaging = messaging
	s.Routing = routing
	s.Discovery = newDiscovery(h, cfg.ServiceTag, em)
	s.Liveness = newLiveness(h, cfg, em, s.done)
	return s, nil
}

// Start begins local-network advertisement and the liveness sweep.
func (s *Set) Start() error {
	if err := s.Discovery.start(); err != nil {
		return fmt.Errorf("starting discovery: %w", err)
	}
	s.Liveness.start()
	return nil
}

// Events returns the fan-in stream. The channel is never closed; after
// Close no further events are delivered on it.
func (s *Set) Events() <-chan Event {
	return s.events
}

// Dropped reports how many lossy events were discarded because the
// consumer fell behind.
func (s *Set) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops all four behaviours. Safe to call more than once.
func (s *Set) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.Liveness.stop()

		var errs []error
		if err := s.Discovery.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing discovery: %w", err))
		}
		if err := s.Messaging.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing messaging: %w", err))
		}
		if err := s.Routing.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing routing: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
