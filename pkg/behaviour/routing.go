package behaviour

import (
	"context"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"
)

// Routing maintains the Kademlia routing table. The table starts empty
// and is populated only through AddAddress; there is no bootstrap peer
// list and no record storage or retrieval.
type Routing struct {
	host host.Host
	dht  *dht.IpfsDHT
	em   *emitter
}

func newRouting(ctx context.Context, h host.Host, prefix protocol.ID, em *emitter) (*Routing, error) {
	d, err := dht.New(ctx, h,
		dht.Mode(dht.ModeServer),
		dht.ProtocolPrefix(prefix),
	)
	if err != nil {
		return nil, err
	}
	return &Routing{host: h, dht: d, em: em}, nil
}

// AddAddress records a dialable address for p and offers p to the
// routing table. An admission is reported on the event stream; a peer
// already present, or one rejected by the table, produces no event.
//
// Emission is lossy on purpose: AddAddress is called synchronously from
// the event consumer, so a blocking send here would deadlock it.
func (r *Routing) AddAddress(p peer.ID, addr multiaddr.Multiaddr) {
	if p == r.host.ID() {
		return
	}
	r.host.Peerstore().AddAddrs(p, []multiaddr.Multiaddr{addr}, peerstore.PermanentAddrTTL)

	added, err := r.dht.RoutingTable().TryAddPeer(p, true, false)
	if err != nil || !added {
		return
	}
	r.em.trySend(Event{
		Kind: EventRoutingUpdated,
		Routing: &RoutingUpdate{
			Peer:      p,
			TableSize: r.dht.RoutingTable().Size(),
		},
	})
}

// Contains reports whether p is in the routing table.
func (r *Routing) Contains(p peer.ID) bool {
	return r.dht.RoutingTable().Find(p) != ""
}

// TableSize returns the number of peers in the routing table.
func (r *Routing) TableSize() int {
	return r.dht.RoutingTable().Size()
}

// Snapshot returns the peers currently in the routing table.
func (r *Routing) Snapshot() []peer.ID {
	return r.dht.RoutingTable().ListPeers()
}

func (r *Routing) close() error {
	return r.dht.Close()
}
