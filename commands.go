package meshwire

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
)

// CommandKind discriminates the variants of Command.
type CommandKind int

const (
	// CommandDial asks the node to connect to a multiaddr. Fire and
	// forget: a malformed address is dropped without feedback.
	CommandDial CommandKind = iota

	// CommandGetPeers asks for the currently connected peers.
	CommandGetPeers

	// CommandGetPeerID asks for the node's own peer ID.
	CommandGetPeerID

	// CommandPublish publishes a payload on a topic, joining it first
	// if needed.
	CommandPublish

	// CommandSubscribe joins a topic.
	CommandSubscribe

	// CommandUnsubscribe leaves a topic.
	CommandUnsubscribe
)

// String returns a human-readable name for the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandDial:
		return "Dial"
	case CommandGetPeers:
		return "GetPeers"
	case CommandGetPeerID:
		return "GetPeerID"
	case CommandPublish:
		return "Publish"
	case CommandSubscribe:
		return "Subscribe"
	case CommandUnsubscribe:
		return "Unsubscribe"
	default:
		return "Unknown"
	}
}

// Command is one instruction for the node's actor loop. Kind selects
// which fields are meaningful.
//
// Reply channels are one-shot: the loop sends at most one value and
// then closes the channel. A close without a value means the node shut
// down before servicing the command.
type Command struct {
	Kind CommandKind

	// Addr is the multiaddr to dial, including the /p2p/ peer component.
	Addr string

	// Topic and Data carry messaging commands.
	Topic string
	Data  []byte

	// PeersReply receives the answer to CommandGetPeers.
	PeersReply chan<- []peer.ID

	// PeerIDReply receives the answer to CommandGetPeerID.
	PeerIDReply chan<- peer.ID
}

// DialCommand builds a dial instruction.
func DialCommand(addr string) Command {
	return Command{Kind: CommandDial, Addr: addr}
}

// GetPeersCommand builds a connected-peers query and returns the
// channel its answer arrives on.
func GetPeersCommand() (Command, <-chan []peer.ID) {
	reply := make(chan []peer.ID, 1)
	return Command{Kind: CommandGetPeers, PeersReply: reply}, reply
}

// GetPeerIDCommand builds a local-peer-ID query and returns the channel
// its answer arrives on.
func GetPeerIDCommand() (Command, <-chan peer.ID) {
	reply := make(chan peer.ID, 1)
	return Command{Kind: CommandGetPeerID, PeerIDReply: reply}, reply
}

// PublishCommand builds a publish instruction.
func PublishCommand(topic string, data []byte) Command {
	return Command{Kind: CommandPublish, Topic: topic, Data: data}
}

// SubscribeCommand builds a topic join instruction.
func SubscribeCommand(topic string) Command {
	return Command{Kind: CommandSubscribe, Topic: topic}
}

// UnsubscribeCommand builds a topic leave instruction.
func UnsubscribeCommand(topic string) Command {
	return Command{Kind: CommandUnsubscribe, Topic: topic}
}

// Commander is the application's handle on a running node. It owns the
// command channel: closing it, via Close, is the one clean way to shut
// the node down. The channel is bounded, so senders block when the loop
// falls behind rather than queueing without limit.
//
// Commands sent after Close are refused with ErrNodeStopped; the
// fire-and-forget helpers drop them silently.
type Commander struct {
	cmds   chan Command
	mu     sync.RWMutex
	closed bool
}

func newCommander(buffer int) *Commander {
	return &Commander{cmds: make(chan Command, buffer)}
}

// Send queues a raw command, blocking while the channel is full. After
// Close it returns ErrNodeStopped.
func (c *Commander) Send(cmd Command) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrNodeStopped
	}
	c.cmds <- cmd
	return nil
}

// Dial asks the node to connect to a multiaddr like
// "/ip4/10.0.0.7/tcp/4001/p2p/<peer-id>". Fire and forget: malformed
// addresses are dropped and dial failures surface only in logs.
func (c *Commander) Dial(addr string) {
	_ = c.Send(DialCommand(addr))
}

// Publish sends data on a topic, joining it first if needed.
func (c *Commander) Publish(topic string, data []byte) {
	_ = c.Send(PublishCommand(topic, data))
}

// Subscribe joins a topic. Its messages arrive on Node.Messages.
func (c *Commander) Subscribe(topic string) {
	_ = c.Send(SubscribeCommand(topic))
}

// Unsubscribe leaves a topic.
func (c *Commander) Unsubscribe(topic string) {
	_ = c.Send(UnsubscribeCommand(topic))
}

// Peers returns the currently connected peers. It blocks until the loop
// answers, ctx expires, or the node stops.
func (c *Commander) Peers(ctx context.Context) ([]peer.ID, error) {
	cmd, reply := GetPeersCommand()
	if err := c.Send(cmd); err != nil {
		return nil, err
	}
	select {
	case peers, ok := <-reply:
		if !ok {
			return nil, ErrNodeStopped
		}
		return peers, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PeerID returns the node's own peer ID. It blocks until the loop
// answers, ctx expires, or the node stops.
func (c *Commander) PeerID(ctx context.Context) (peer.ID, error) {
	cmd, reply := GetPeerIDCommand()
	if err := c.Send(cmd); err != nil {
		return "", err
	}
	select {
	case id, ok := <-reply:
		if !ok {
			return "", ErrNodeStopped
		}
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close closes the command channel, which shuts the node down once the
// loop drains any commands already queued. Safe to call more than once.
//
// Close waits for in-flight Send calls to land before closing, so every
// command accepted before Close is still delivered to the loop.
func (c *Commander) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.cmds)
}
