/*
Package meshwire provides a self-contained peer-to-peer mesh node built
on libp2p.

Meshwire bundles transport security, gossip messaging, local discovery,
routing, and liveness probing behind a single actor-style node. The
application drives the node through commands and reads verified messages
and lifecycle notifications from channels; all networking state stays
inside one loop and never needs locking by the caller.

# Features

  - Fresh or persisted Ed25519 identity, peer ID derived from the public key
  - Optional private network gated by a 32-byte pre-shared key
  - TCP transport with Noise encryption and yamux multiplexing
  - Signed gossip pub/sub with strict signature verification
  - Kademlia routing table seeded from local mDNS discovery
  - Periodic liveness probing with round-trip time tracking
  - Idle connections reclaimed after a configurable timeout
  - Fire-and-forget dialing that never blocks the node
  - Thread-safe concurrent operations

# Quick Start

Create and start a node:

	node, err := meshwire.New(meshwire.NewConfig(
		meshwire.WithTopics("chat"),
	))
	if err != nil {
		// Handle error
	}

	if err := node.Start(); err != nil {
		// Handle error
	}
	defer node.Stop()

Drive it through the commander:

	cmd := node.Commander()
	cmd.Dial("/ip4/192.0.2.7/tcp/4001/p2p/12D3KooW...")
	cmd.Publish("chat", []byte("hello mesh"))

	peers, err := cmd.Peers(ctx)

Dial targets are full multiaddrs naming the peer: the trailing /p2p/
component is required, because every connection authenticates the
remote end against the peer ID it was dialed as. An address without
one is dropped silently, like any other undialable address.

Receive verified messages:

	for msg := range node.Messages() {
		fmt.Printf("%s @ %s: %s\n", msg.From, msg.Topic, msg.Data)
	}

Watch peer lifecycle notifications:

	for ev := range node.Notifications() {
		switch ev.Kind {
		case meshwire.PeerDiscovered:
			fmt.Printf("found %s\n", ev.PeerID)
		case meshwire.PeerConnected:
			fmt.Printf("connected %s (%s)\n", ev.PeerID, ev.Direction)
		}
	}

# Private Networks

A pre-shared key confines the node to peers holding the same key. Keys
load from a three-line file (codec header, encoding, hex digits) and a
load failure follows the configured policy: the default fails open onto
the public network with a warning, PSKFailClosed refuses to build the
node.

	node, err := meshwire.New(meshwire.NewConfig(
		meshwire.WithPSKPath("/etc/meshwire/swarm.key"),
		meshwire.WithPSKPolicy(meshwire.PSKFailClosed),
	))

# Architecture

Meshwire separates concerns clearly:

Application responsibilities:
  - Deciding which peers to dial
  - Topic names and message payloads
  - Reacting to messages and notifications

Meshwire responsibilities:
  - Transport security and connection lifecycle
  - Message signing, verification, and gossip propagation
  - Discovery, routing table maintenance, liveness probing
  - Serializing all state changes through one loop

# Shutdown

Stop closes the command channel, which is the only clean shutdown
signal. Commands already accepted are serviced before the node tears
down; the message and notification channels close once teardown
finishes. Reply channels of in-flight queries close without a value
when the node stops first.

# Thread Safety

All public Node and Commander methods are thread-safe. Channels
(Messages, Notifications) are safe for concurrent reads from a single
consumer.

# Dependencies

  - github.com/libp2p/go-libp2p - P2P networking
  - github.com/libp2p/go-libp2p-pubsub - Gossip messaging
  - github.com/libp2p/go-libp2p-kad-dht - Routing table
  - golang.org/x/crypto - Cryptographic primitives

# See Also

  - README.md - Getting started and API reference
  - examples/basic - Minimal example
  - examples/pubsub - Interactive gossip chat
  - examples/private - Pre-shared key mesh
*/
package meshwire
