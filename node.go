package meshwire

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/pnet"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"

	"github.com/AXI0MH1VE/meshwire/pkg/behaviour"
	"github.com/AXI0MH1VE/meshwire/pkg/identity"
	"github.com/AXI0MH1VE/meshwire/pkg/psk"
	"github.com/AXI0MH1VE/meshwire/pkg/swarm"
)

// Message is a received publish/subscribe message, re-exported from the
// behaviour package for the public API.
type Message = behaviour.Message

// Node is the main entry point for a Meshwire mesh node.
//
// A node runs as a single actor: one loop owns the swarm and serializes
// every command against every network event, so no state needs locking
// inside it. The application talks to the loop through the Commander
// and reads delivered messages from Messages.
//
// All public methods are thread-safe.
type Node struct {
	config *Config

	id  *identity.Identity
	psk pnet.PSK

	log     Logger
	metrics Metrics
	stats   *statsTracker

	swarm         *swarm.Swarm
	commander     *Commander
	messages      chan Message
	notifications chan PeerEvent

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	runDone chan struct{}
	dialWG  sync.WaitGroup

	started bool
	stopped bool
	startMu sync.Mutex
}

// New creates a new Meshwire node with the given configuration.
// The identity and pre-shared key are resolved here; sockets are not
// bound until Start.
func New(cfg *Config) (*Node, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.applyDefaults()

	n := &Node{
		config:  cfg,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		stats:   newStatsTracker(),
		runDone: make(chan struct{}),
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	if err := n.resolveIdentity(); err != nil {
		n.cancel()
		return nil, err
	}
	if err := n.resolvePSK(); err != nil {
		n.cancel()
		return nil, err
	}

	return n, nil
}

// resolveIdentity picks the keypair: explicit, persisted, or fresh.
// With neither Identity nor IdentityPath set, every start mints a new
// peer ID.
func (n *Node) resolveIdentity() error {
	switch {
	case n.config.Identity != nil:
		n.id = n.config.Identity
	case n.config.IdentityPath != "":
		id, err := identity.LoadOrGenerate(n.config.IdentityPath)
		if err != nil {
			return NewErrorWithCause(ErrCodeIdentityFailed, "resolving persistent identity", err)
		}
		n.id = id
	default:
		id, err := identity.Generate()
		if err != nil {
			return NewErrorWithCause(ErrCodeIdentityFailed, "generating identity", err)
		}
		n.id = id
	}
	n.log.Debug("identity resolved", "peer_id", n.id.PeerID().String())
	return nil
}

// resolvePSK loads the private network key if one is configured. A load
// failure follows the configured policy: fail-open degrades to the
// public pipeline with a warning, fail-closed refuses to build the node.
func (n *Node) resolvePSK() error {
	if len(n.config.PSK) != 0 {
		n.psk = n.config.PSK
		n.log.Info("private network enabled", "fingerprint", psk.Fingerprint(n.psk))
		return nil
	}
	if n.config.PSKPath == "" {
		return nil
	}

	key, err := psk.Load(n.config.PSKPath)
	if err != nil {
		if n.config.PSKPolicy == PSKFailClosed {
			return NewErrorWithCause(ErrCodePSKLoadFailed, "loading pre-shared key", err)
		}
		n.log.Warn("pre-shared key unavailable; continuing on public network",
			"path", n.config.PSKPath, "error", err)
		return nil
	}

	n.psk = key
	n.log.Info("private network enabled",
		"path", n.config.PSKPath, "fingerprint", psk.Fingerprint(key))
	return nil
}

// Start binds the listening sockets, starts the behaviours, and launches
// the actor loop. A bind failure is fatal and returned as an error.
func (n *Node) Start() error {
	n.startMu.Lock()
	defer n.startMu.Unlock()

	if n.started {
		return ErrNodeAlreadyStarted
	}
	if n.stopped {
		return ErrNodeStopped
	}

	s, err := swarm.Assemble(n.ctx, swarm.Config{
		Identity:      n.id,
		PSK:           n.psk,
		ListenAddrs:   n.config.ListenAddrs,
		UserAgent:     UserAgent(),
		IdleTimeout:   n.config.IdleTimeout,
		ConnLowWater:  n.config.ConnLowWater,
		ConnHighWater: n.config.ConnHighWater,
		EventBuffer:   n.config.EventBuffer,
		OnDrop:        n.metrics.EventDropped,
		Clock:         n.config.Clock,
		Behaviour: behaviour.Config{
			ProtocolPrefix:    protocol.ID(n.config.ProtocolPrefix),
			ServiceTag:        n.config.ServiceTag,
			HeartbeatInterval: n.config.HeartbeatInterval,
			PingInterval:      n.config.PingInterval,
			PingTimeout:       n.config.PingTimeout,
			EventBuffer:       n.config.EventBuffer,
			Clock:             n.config.Clock,
		},
	})
	if err != nil {
		return NewErrorWithCause(ErrCodeBindFailed, "assembling swarm", err)
	}
	n.swarm = s

	for _, topic := range n.config.Topics {
		if err := s.Behaviours().Messaging.Join(topic); err != nil {
			s.Close()
			n.swarm = nil
			return NewErrorWithCause(ErrCodeSubscribeFailed,
				fmt.Sprintf("joining topic %q", topic), err)
		}
	}

	if err := s.Start(); err != nil {
		s.Close()
		n.swarm = nil
		return fmt.Errorf("starting swarm: %w", err)
	}

	n.commander = newCommander(n.config.CommandBuffer)
	n.messages = make(chan Message, n.config.MessageBuffer)
	n.notifications = make(chan PeerEvent, n.config.EventBuffer)
	go n.run()

	n.started = true
	n.log.Info("node started",
		"peer_id", n.id.PeerID().String(),
		"addrs", addrStrings(s.Addrs()),
		"private", n.psk != nil)
	return nil
}

// Stop shuts the node down by closing the command channel and waiting
// for the actor loop to finish tearing down the swarm.
func (n *Node) Stop() error {
	n.startMu.Lock()
	defer n.startMu.Unlock()

	if !n.started {
		return ErrNodeNotStarted
	}

	n.commander.Close()
	<-n.runDone

	n.started = false
	n.stopped = true
	return nil
}

// Commander returns the application's handle on the running node, or
// nil before Start.
func (n *Node) Commander() *Commander {
	n.startMu.Lock()
	defer n.startMu.Unlock()
	return n.commander
}

// Messages returns the channel delivering verified messages from joined
// topics. The channel is closed when the node shuts down. Nil before
// Start.
func (n *Node) Messages() <-chan Message {
	n.startMu.Lock()
	defer n.startMu.Unlock()
	return n.messages
}

// Notifications returns the channel delivering peer lifecycle events.
// Delivery is best effort: when nobody is reading, events are dropped
// rather than stalling the node. The channel is closed when the node
// shuts down. Nil before Start.
func (n *Node) Notifications() <-chan PeerEvent {
	n.startMu.Lock()
	defer n.startMu.Unlock()
	return n.notifications
}

// PeerID returns the local peer ID. Available before Start.
func (n *Node) PeerID() peer.ID {
	return n.id.PeerID()
}

// PublicKey returns the local public key. Available before Start.
func (n *Node) PublicKey() crypto.PubKey {
	return n.id.PublicKey()
}

// Private reports whether the node runs on a private network pipeline.
func (n *Node) Private() bool {
	return n.psk != nil
}

// Version returns the protocol version of this node.
func (n *Node) Version() ProtocolVersion {
	return CurrentVersion()
}

// Addrs returns the multiaddresses the node is listening on, or nil
// before Start.
func (n *Node) Addrs() []multiaddr.Multiaddr {
	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s == nil {
		return nil
	}
	return s.Addrs()
}

// ConnectedPeers returns the peers with a live connection, or nil
// before Start. Unlike Commander.Peers this reads the network state
// directly instead of asking the loop.
func (n *Node) ConnectedPeers() []peer.ID {
	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s == nil {
		return nil
	}
	return s.ConnectedPeers()
}

// RoutingPeers returns the peers currently in the routing table, or nil
// before Start.
func (n *Node) RoutingPeers() []peer.ID {
	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s == nil {
		return nil
	}
	return s.Behaviours().Routing.Snapshot()
}

// Topics returns the currently joined topics, or nil before Start.
func (n *Node) Topics() []string {
	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s == nil {
		return nil
	}
	return s.Behaviours().Messaging.Topics()
}

// Stats returns a snapshot of node activity.
func (n *Node) Stats() *NodeStats {
	stats := n.stats.Snapshot()
	stats.PeerID = n.id.PeerID()

	n.startMu.Lock()
	s := n.swarm
	n.startMu.Unlock()
	if s != nil {
		stats.ConnectedPeers = len(s.ConnectedPeers())
		stats.RoutingTableSize = s.Behaviours().Routing.TableSize()
		stats.EventsDropped = s.Dropped()
	}
	return stats
}

// run is the actor loop. It owns the swarm: every command and every
// network event passes through this one goroutine, in whatever order
// the select picks them, until the command channel closes.
//
// Closing the command channel is the only clean shutdown. Commands
// already queued are drained and serviced before the close is observed,
// so no accepted command is silently lost.
func (n *Node) run() {
	defer close(n.runDone)

	events := n.swarm.Events()
	for {
		select {
		case cmd, ok := <-n.commander.cmds:
			if !ok {
				n.log.Info("command channel closed; shutting down")
				n.teardown()
				return
			}
			n.handleCommand(cmd)
		case ev := <-events:
			n.handleEvent(ev)
		}
	}
}

// teardown closes the swarm, waits out in-flight dials, and releases
// the message channel. Runs on the actor goroutine only.
func (n *Node) teardown() {
	if err := n.swarm.Close(); err != nil {
		n.log.Warn("swarm close reported errors", "error", err)
	}
	n.dialWG.Wait()
	n.cancel()
	close(n.messages)
	close(n.notifications)
	n.log.Info("node stopped", "peer_id", n.id.PeerID().String())
}

func (n *Node) handleCommand(cmd Command) {
	n.metrics.CommandReceived(cmd.Kind.String())

	switch cmd.Kind {
	case CommandDial:
		n.handleDial(cmd.Addr)

	case CommandGetPeers:
		reply(cmd.PeersReply, n.swarm.ConnectedPeers())

	case CommandGetPeerID:
		reply(cmd.PeerIDReply, n.id.PeerID())

	case CommandPublish:
		n.handlePublish(cmd.Topic, cmd.Data)

	case CommandSubscribe:
		if err := ValidateTopic(cmd.Topic, n.config.MaxTopicLength); err != nil {
			n.log.Warn("rejecting subscribe", "topic", cmd.Topic, "error", err)
			return
		}
		if err := n.swarm.Behaviours().Messaging.Join(cmd.Topic); err != nil {
			n.log.Warn("subscribe failed", "topic", cmd.Topic, "error", err)
			return
		}
		n.log.Info("joined topic", "topic", cmd.Topic)

	case CommandUnsubscribe:
		if err := n.swarm.Behaviours().Messaging.Leave(cmd.Topic); err != nil {
			n.log.Warn("unsubscribe failed", "topic", cmd.Topic, "error", err)
			return
		}
		n.log.Info("left topic", "topic", cmd.Topic)

	default:
		n.log.Debug("ignoring unknown command", "kind", int(cmd.Kind))
	}
}

// handleDial parses and dials in the background. Dialing is fire and
// forget: a malformed address is dropped without an error reaching the
// sender, and the loop never blocks on a slow remote.
func (n *Node) handleDial(addr string) {
	pi, err := parseDialAddr(addr)
	if err != nil {
		n.log.Debug("dropping undialable address", "addr", addr, "error", err)
		n.metrics.DialAttempt("invalid_addr")
		return
	}

	n.stats.RecordDialAttempt()
	n.dialWG.Add(1)
	go func() {
		defer n.dialWG.Done()

		ctx, cancel := context.WithTimeout(n.ctx, n.config.DialTimeout)
		defer cancel()

		if err := n.swarm.Dial(ctx, *pi); err != nil {
			n.stats.RecordDialFailure()
			n.metrics.DialAttempt("failure")
			n.log.Warn("dial failed", "peer", pi.ID.String(), "error", err)
			return
		}
		n.metrics.DialAttempt("success")
		n.log.Info("dialed peer", "peer", pi.ID.String())
	}()
}

func (n *Node) handlePublish(topic string, data []byte) {
	if err := ValidateTopic(topic, n.config.MaxTopicLength); err != nil {
		n.log.Warn("rejecting publish", "topic", topic, "error", err)
		return
	}
	if err := ValidatePayloadSize(data, n.config.MaxMessageSize); err != nil {
		n.log.Warn("rejecting publish", "topic", topic, "error", err)
		return
	}

	messaging := n.swarm.Behaviours().Messaging
	if err := messaging.Join(topic); err != nil {
		n.log.Warn("publish failed", "topic", topic, "error", err)
		return
	}
	if err := messaging.Publish(n.ctx, topic, data); err != nil {
		n.log.Warn("publish failed", "topic", topic, "error", err)
		return
	}
	n.stats.RecordPublish(topic, len(data))
	n.metrics.MessagePublished(topic, len(data))
}

func (n *Node) handleEvent(ev swarm.Event) {
	n.metrics.EventObserved(ev.Kind.String())

	switch ev.Kind {
	case swarm.EventListenAddr:
		n.log.Info("listening", "addrs", addrStrings(ev.Addrs))

	case swarm.EventPeerConnected:
		n.log.Info("peer connected",
			"peer", ev.Peer.String(), "direction", directionLabel(ev.Direction))
		n.metrics.ConnectionOpened(directionLabel(ev.Direction))
		n.notify(PeerEvent{
			Kind:      PeerConnected,
			PeerID:    ev.Peer,
			Direction: directionLabel(ev.Direction),
			Timestamp: ev.Timestamp,
		})

	case swarm.EventPeerDisconnected:
		n.log.Info("peer disconnected", "peer", ev.Peer.String())
		n.metrics.ConnectionClosed(directionLabel(ev.Direction))
		n.notify(PeerEvent{
			Kind:      PeerDisconnected,
			PeerID:    ev.Peer,
			Direction: directionLabel(ev.Direction),
			Timestamp: ev.Timestamp,
		})

	case swarm.EventBehaviour:
		n.handleBehaviourEvent(ev.Behaviour)
	}
}

func (n *Node) handleBehaviourEvent(ev *behaviour.Event) {
	switch ev.Kind {
	case behaviour.EventPeersFound:
		for _, pi := range ev.Peers {
			n.log.Debug("discovered peer",
				"peer", pi.ID.String(), "addrs", len(pi.Addrs))
			n.stats.RecordDiscovered(1)
			n.metrics.PeerDiscovered()
			for _, addr := range pi.Addrs {
				n.swarm.Behaviours().Routing.AddAddress(pi.ID, addr)
			}
			n.notify(PeerEvent{
				Kind:      PeerDiscovered,
				PeerID:    pi.ID,
				Timestamp: ev.Timestamp,
			})
		}

	case behaviour.EventRoutingUpdated:
		n.log.Debug("routing table updated",
			"peer", ev.Routing.Peer.String(), "size", ev.Routing.TableSize)
		n.metrics.RoutingTableSize(ev.Routing.TableSize)

	case behaviour.EventMessage:
		m := *ev.Message
		n.stats.RecordReceive(m.Topic, len(m.Data))
		n.metrics.MessageReceived(m.Topic, len(m.Data))
		select {
		case n.messages <- m:
		default:
			n.stats.RecordMessageDropped()
			n.metrics.MessageDropped()
			n.log.Warn("message buffer full; dropping",
				"topic", m.Topic, "from", m.From.String())
		}

	case behaviour.EventPingResult:
		p := ev.Ping
		if p.Err != nil {
			n.metrics.PingFailure()
			n.log.Debug("probe failed", "peer", p.Peer.String(), "error", p.Err)
			n.notify(PeerEvent{
				Kind:      PeerUnreachable,
				PeerID:    p.Peer,
				Error:     p.Err,
				Timestamp: ev.Timestamp,
			})
			return
		}
		n.stats.RecordRTT(p.Peer, p.RTT)
		n.metrics.PingRTT(p.RTT.Seconds())
		n.log.Debug("probe", "peer", p.Peer.String(), "rtt", p.RTT.String())
	}
}

// notify hands a lifecycle event to the application without blocking
// the loop. A full or unread channel drops the event.
func (n *Node) notify(ev PeerEvent) {
	select {
	case n.notifications <- ev:
	default:
	}
}

// reply answers a one-shot query channel without ever blocking the
// loop. Hand-built commands may carry an unbuffered or already
// abandoned channel; the value is forfeited in that case and the close
// alone signals completion.
func reply[T any](ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
	close(ch)
}

// parseDialAddr turns a full multiaddr string, peer component included,
// into dialable address info.
func parseDialAddr(addr string) (*peer.AddrInfo, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, err
	}
	return peer.AddrInfoFromP2pAddr(ma)
}

func addrStrings(addrs []multiaddr.Multiaddr) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func directionLabel(d network.Direction) string {
	switch d {
	case network.DirInbound:
		return "inbound"
	case network.DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}
