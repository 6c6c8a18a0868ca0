package behaviour

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
)

// ErrNotJoined indicates a publish on a topic the node has not joined.
var ErrNotJoined = errors.New("topic not joined")

// Messaging is the signed publish/subscribe behaviour. Every outgoing
// message is signed with the node identity; every incoming message must
// carry a valid signature from its claimed publisher or it is rejected
// before delivery.
type Messaging struct {
	host host.Host
	ps   *pubsub.PubSub
	em   *emitter

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription

	wg sync.WaitGroup
}

func newMessaging(ctx context.Context, h host.Host, cfg Config, em *emitter) (*Messaging, error) {
	params := pubsub.DefaultGossipSubParams()
	params.HeartbeatInterval = cfg.HeartbeatInterval

	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithGossipSubParams(params),
	)
	if err != nil {
		return nil, err
	}

	return &Messaging{
		host:   h,
		ps:     ps,
		em:     em,
		topics: make(map[string]*pubsub.Topic),
		subs:   make(map[string]*pubsub.Subscription),
	}, nil
}

// Join subscribes the node to a topic and starts delivering its
// messages on the event stream. Joining an already-joined topic is a
// no-op.
func (m *Messaging) Join(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.topics[name]; ok {
		return nil
	}

	topic, err := m.ps.Join(name)
	if err != nil {
		return fmt.Errorf("joining topic %q: %w", name, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		topic.Close()
		return fmt.Errorf("subscribing to topic %q: %w", name, err)
	}

	m.topics[name] = topic
	m.subs[name] = sub

	m.wg.Add(1)
	go m.readLoop(name, sub)
	return nil
}

// Publish sends data on a joined topic. The message is signed before it
// leaves the node.
func (m *Messaging) Publish(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	topic, ok := m.topics[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("publishing to %q: %w", name, ErrNotJoined)
	}
	if err := topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("publishing to %q: %w", name, err)
	}
	return nil
}

// Leave unsubscribes from a topic. Leaving a topic that was never
// joined is a no-op.
func (m *Messaging) Leave(name string) error {
	m.mu.Lock()
	topic, ok := m.topics[name]
	sub := m.subs[name]
	delete(m.topics, name)
	delete(m.subs, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	sub.Cancel()
	if err := topic.Close(); err != nil {
		return fmt.Errorf("leaving topic %q: %w", name, err)
	}
	return nil
}

// Topics returns the currently joined topic names.
func (m *Messaging) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	return names
}

// readLoop drains one subscription into the event stream. Delivery
// blocks rather than drops: message backpressure propagates to the
// gossip layer instead of silently losing payloads.
func (m *Messaging) readLoop(name string, sub *pubsub.Subscription) {
	defer m.wg.Done()

	for {
		msg, err := sub.Next(context.Background())
		if err != nil {
			// Subscription cancelled; the topic is being left or the
			// behaviour is shutting down.
			return
		}
		if msg.GetFrom() == m.host.ID() {
			continue
		}
		m.em.send(Event{
			Kind: EventMessage,
			Message: &Message{
				Topic: name,
				From:  msg.GetFrom(),
				Data:  msg.GetData(),
				Seq:   decodeSeqno(msg.GetSeqno()),
			},
		})
	}
}

func (m *Messaging) close() error {
	m.mu.Lock()
	subs := m.subs
	topics := m.topics
	m.subs = make(map[string]*pubsub.Subscription)
	m.topics = make(map[string]*pubsub.Topic)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	m.wg.Wait()

	var errs []error
	for name, topic := range topics {
		if err := topic.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing topic %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func decodeSeqno(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}
