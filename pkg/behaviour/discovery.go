package behaviour

import (
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
)

// Discovery advertises the node on the local network and reports peers
// advertising the same service tag. It only surfaces discoveries; it
// never dials. Whether a found peer is contacted is the consumer's
// decision.
type Discovery struct {
	self peer.ID
	svc  mdns.Service
	em   *emitter
}

func newDiscovery(h host.Host, tag string, em *emitter) *Discovery {
	d := &Discovery{self: h.ID(), em: em}
	d.svc = mdns.NewMdnsService(h, tag, d)
	return d
}

// HandlePeerFound receives one discovered peer from the service layer.
// Discovery events are delivered with backpressure, not dropped: the
// routing table is seeded exclusively from them, so losing one loses a
// peer until its next advertisement.
func (d *Discovery) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == d.self {
		return
	}
	d.em.send(Event{
		Kind:  EventPeersFound,
		Peers: []peer.AddrInfo{pi},
	})
}

func (d *Discovery) start() error {
	return d.svc.Start()
}

func (d *Discovery) close() error {
	return d.svc.Close()
}
