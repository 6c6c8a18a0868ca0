// Package swarm assembles a live node: the transport pipeline bound to
// listening sockets, the behaviour set running on top, and a single
// event stream describing everything the node observes.
//
// A Swarm is owned by exactly one consumer. All mutation goes through
// its methods; the event channel is read from one goroutine.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/core/pnet"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/multiformats/go-multiaddr"

	"github.com/AXI0MH1VE/meshwire/pkg/behaviour"
	"github.com/AXI0MH1VE/meshwire/pkg/identity"
	"github.com/AXI0MH1VE/meshwire/pkg/transport"
)

// Defaults applied by Config.applyDefaults.
const (
	// DefaultListenAddr binds every interface on an OS-assigned port.
	DefaultListenAddr = "/ip4/0.0.0.0/tcp/0"

	// DefaultIdleTimeout is how long a streamless connection survives
	// before the sweep closes it.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultConnLowWater and DefaultConnHighWater bound the connection
	// manager. Above the high watermark, connections are trimmed back
	// towards the low one.
	DefaultConnLowWater  = 100
	DefaultConnHighWater = 400

	// DefaultEventBuffer is the capacity of the swarm event channel.
	DefaultEventBuffer = 64
)

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventListenAddr reports the node's current listening addresses.
	EventListenAddr EventKind = iota

	// EventPeerConnected reports a new connection to a peer.
	EventPeerConnected

	// EventPeerDisconnected reports the last connection to a peer closing.
	EventPeerDisconnected

	// EventBehaviour wraps an event from the behaviour set.
	EventBehaviour
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventListenAddr:
		return "ListenAddr"
	case EventPeerConnected:
		return "PeerConnected"
	case EventPeerDisconnected:
		return "PeerDisconnected"
	case EventBehaviour:
		return "Behaviour"
	default:
		return "Unknown"
	}
}

// Event is the tagged union on the swarm stream. Kind selects which
// fields are populated.
type Event struct {
	Kind      EventKind
	Addrs     []multiaddr.Multiaddr
	Peer      peer.ID
	Direction network.Direction
	Behaviour *behaviour.Event
	Timestamp time.Time
}

// Config assembles a Swarm. Identity is the only mandatory field.
type Config struct {
	// Identity is the node keypair. Required.
	Identity *identity.Identity

	// PSK, when set, confines the node to peers holding the same key.
	PSK pnet.PSK

	// ListenAddrs are multiaddr strings to bind. Binding is fatal on
	// failure; a node that cannot listen must not come up half-deaf.
	ListenAddrs []string

	// UserAgent overrides the agent string sent during negotiation.
	UserAgent string

	// IdleTimeout is how long a streamless connection may linger.
	IdleTimeout time.Duration

	// ConnLowWater and ConnHighWater configure the connection manager.
	ConnLowWater  int
	ConnHighWater int

	// EventBuffer is the swarm event channel capacity.
	EventBuffer int

	// OnDrop, when set, is called once for every advisory event
	// discarded because the consumer fell behind. It propagates to the
	// behaviour set unless that set carries its own.
	OnDrop func()

	// Behaviour configures the protocol machines.
	Behaviour behaviour.Config

	// Clock drives the idle sweep. Tests inject a mock.
	Clock clock.Clock
}

func (c *Config) applyDefaults() {
	if len(c.ListenAddrs) == 0 {
		c.ListenAddrs = []string{DefaultListenAddr}
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ConnLowWater <= 0 {
		c.ConnLowWater = DefaultConnLowWater
	}
	if c.ConnHighWater <= 0 {
		c.ConnHighWater = DefaultConnHighWater
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Behaviour.Clock == nil {
		c.Behaviour.Clock = c.Clock
	}
	if c.Behaviour.OnDrop == nil {
		c.Behaviour.OnDrop = c.OnDrop
	}
}

// Swarm is an assembled node: sockets, transport pipeline, behaviours.
type Swarm struct {
	host host.Host
	set  *behaviour.Set

	events  chan Event
	done    chan struct{}
	dropped atomic.Uint64
	onDrop  func()

	addrSub event.Subscription

	clk         clock.Clock
	idleTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Assemble builds the node and binds its listening sockets. A bind
// failure is returned as an error; the caller treats it as fatal. The
// swarm is quiet until Start.
func Assemble(ctx context.Context, cfg Config) (*Swarm, error) {
	if cfg.Identity == nil {
		return nil, errors.New("swarm requires an identity")
	}
	cfg.applyDefaults()

	topts := []transport.Option{}
	if cfg.PSK != nil {
		topts = append(topts, transport.WithPSK(cfg.PSK))
	}
	if cfg.UserAgent != "" {
		topts = append(topts, transport.WithUserAgent(cfg.UserAgent))
	}
	pipeline, err := transport.New(cfg.Identity, topts...)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	cm, err := connmgr.NewConnManager(
		cfg.ConnLowWater,
		cfg.ConnHighWater,
		connmgr.WithGracePeriod(0),
	)
	if err != nil {
		return nil, fmt.Errorf("building connection manager: %w", err)
	}

	opts := append(pipeline.Options(),
		libp2p.ListenAddrStrings(cfg.ListenAddrs...),
		libp2p.ConnectionManager(cm),
	)
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("binding swarm: %w", err)
	}

	set, err := behaviour.NewSet(ctx, h, cfg.Behaviour)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("building behaviours: %w", err)
	}

	addrSub, err := h.EventBus().Subscribe(new(event.EvtLocalAddressesUpdated))
	if err != nil {
		set.Close()
		h.Close()
		return nil, fmt.Errorf("subscribing to address updates: %w", err)
	}

	s := &Swarm{
		host:        h,
		set:         set,
		events:      make(chan Event, cfg.EventBuffer),
		done:        make(chan struct{}),
		onDrop:      cfg.OnDrop,
		addrSub:     addrSub,
		clk:         cfg.Clock,
		idleTimeout: cfg.IdleTimeout,
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			s.tryEmit(Event{
				Kind:      EventPeerConnected,
				Peer:      c.RemotePeer(),
				Direction: c.Stat().Direction,
			})
		},
		DisconnectedF: func(n network.Network, c network.Conn) {
			if n.Connectedness(c.RemotePeer()) == network.Connected {
				return
			}
			s.tryEmit(Event{Kind: EventPeerDisconnected, Peer: c.RemotePeer()})
		},
	})

	return s, nil
}

// Start begins discovery, liveness probing, the address pump, and the
// idle sweep.
func (s *Swarm) Start() error {
	if err := s.set.Start(); err != nil {
		return err
	}
	s.wg.Add(3)
	go s.pumpAddrs()
	go s.pumpBehaviour()
	go s.sweepIdle()
	return nil
}

// Events returns the swarm stream. The channel is never closed; after
// Close no further events are delivered on it.
func (s *Swarm) Events() <-chan Event {
	return s.events
}

// Behaviours exposes the protocol machines for direct calls.
func (s *Swarm) Behaviours() *behaviour.Set {
	return s.set
}

// LocalPeer returns this node's peer ID.
func (s *Swarm) LocalPeer() peer.ID {
	return s.host.ID()
}

// Addrs returns the current listening addresses.
func (s *Swarm) Addrs() []multiaddr.Multiaddr {
	return s.host.Addrs()
}

// Dial connects to a peer, recording its address first so later
// protocols can reach it too.
func (s *Swarm) Dial(ctx context.Context, pi peer.AddrInfo) error {
	s.host.Peerstore().AddAddrs(pi.ID, pi.Addrs, peerstore.PermanentAddrTTL)
	if err := s.host.Connect(ctx, pi); err != nil {
		return fmt.Errorf("dialing %s: %w", pi.ID, err)
	}
	return nil
}

// ConnectedPeers returns the peers with at least one live connection.
func (s *Swarm) ConnectedPeers() []peer.ID {
	all := s.host.Network().Peers()
	out := make([]peer.ID, 0, len(all))
	for _, p := range all {
		if s.host.Network().Connectedness(p) == network.Connected {
			out = append(out, p)
		}
	}
	return out
}

// Host exposes the underlying host. Prefer the wrapped methods.
func (s *Swarm) Host() host.Host {
	return s.host
}

// Dropped reports how many advisory events were discarded because the
// consumer fell behind.
func (s *Swarm) Dropped() uint64 {
	return s.dropped.Load() + s.set.Dropped()
}

// Close tears the node down: behaviours first, then sockets. Safe to
// call more than once.
func (s *Swarm) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		var errs []error
		if err := s.set.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.addrSub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing address subscription: %w", err))
		}
		if err := s.host.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing host: %w", err))
		}
		s.wg.Wait()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// emit blocks until the consumer takes the event or the swarm closes.
func (s *Swarm) emit(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// tryEmit drops when the buffer is full. Used from network callbacks,
// which must never stall on a slow consumer.
func (s *Swarm) tryEmit(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case s.events <- ev:
	case <-s.done:
	default:
		s.dropped.Add(1)
		if s.onDrop != nil {
			s.onDrop()
		}
	}
}

// pumpAddrs forwards listen-address updates. The address event source
// is stateful, so the first read reports the addresses already bound.
func (s *Swarm) pumpAddrs() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case raw, ok := <-s.addrSub.Out():
			if !ok {
				return
			}
			upd, ok := raw.(event.EvtLocalAddressesUpdated)
			if !ok {
				continue
			}
			addrs := make([]multiaddr.Multiaddr, 0, len(upd.Current))
			for _, a := range upd.Current {
				addrs = append(addrs, a.Address)
			}
			s.emit(Event{Kind: EventListenAddr, Addrs: addrs})
		}
	}
}

// pumpBehaviour lifts behaviour events onto the swarm stream. Delivery
// preserves the behaviours' own loss policies: whatever reached their
// channel is forwarded with backpressure.
func (s *Swarm) pumpBehaviour() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.set.Events():
			s.emit(Event{Kind: EventBehaviour, Behaviour: &ev})
		}
	}
}

// sweepIdle closes connections that stay streamless for a full idle
// timeout. A connection is only closed after two observations: one
// sweep marks it idle, a later sweep past the timeout reclaims it.
func (s *Swarm) sweepIdle() {
	defer s.wg.Done()

	interval := s.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := s.clk.Ticker(interval)
	defer ticker.Stop()

	idleSince := make(map[string]time.Time)

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.clk.Now()
			live := make(map[string]struct{})
			for _, conn := range s.host.Network().Conns() {
				id := conn.ID()
				live[id] = struct{}{}
				if conn.Stat().NumStreams > 0 {
					delete(idleSince, id)
					continue
				}
				since, seen := idleSince[id]
				if !seen {
					idleSince[id] = now
					continue
				}
				if now.Sub(since) >= s.idleTimeout {
					conn.Close()
					delete(idleSince, id)
				}
			}
			for id := range idleSince {
				if _, ok := live[id]; !ok {
					delete(idleSince, id)
				}
			}
		}
	}
}
