// Package transport assembles the connection pipeline shared by every
// link a node opens or accepts: TCP at the bottom, an optional
// pre-shared-key envelope around it, then authenticated encryption and
// stream multiplexing negotiated per connection.
//
// The pipeline is built exactly once, up front. Whether the PSK layer
// is present or absent, the result has the same shape to callers; the
// rest of the node cannot tell a private pipeline from a public one.
package transport

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/pnet"
	"github.com/libp2p/go-libp2p/p2p/muxer/yamux"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"

	"github.com/AXI0MH1VE/meshwire/pkg/identity"
)

// DefaultUserAgent identifies this implementation during connection
// version negotiation when the caller does not set one.
const DefaultUserAgent = "meshwire"

// ErrInvalidPSK indicates a pre-shared key of the wrong size.
var ErrInvalidPSK = errors.New("pre-shared key must be 32 bytes")

// Pipeline captures the fixed transport decisions for a node. Build it
// once with New and hand its Options to the swarm assembler.
type Pipeline struct {
	id        *identity.Identity
	psk       pnet.PSK
	userAgent string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPSK wraps every connection in a private-network envelope keyed by
// key. Nodes holding different keys cannot complete a connection.
func WithPSK(key pnet.PSK) Option {
	return func(p *Pipeline) error {
		if len(key) != 32 {
			return ErrInvalidPSK
		}
		p.psk = key
		return nil
	}
}

// WithUserAgent sets the agent string exchanged during connection setup.
func WithUserAgent(ua string) Option {
	return func(p *Pipeline) error {
		if ua == "" {
			return errors.New("user agent must not be empty")
		}
		p.userAgent = ua
		return nil
	}
}

// New builds the pipeline for the given identity. The identity is
// mandatory: every connection authenticates both ends against their
// peer IDs, so an anonymous pipeline is not constructible.
func New(id *identity.Identity, opts ...Option) (*Pipeline, error) {
	if id == nil {
		return nil, errors.New("transport requires an identity")
	}

	p := &Pipeline{
		id:        id,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("configuring transport: %w", err)
		}
	}
	return p, nil
}

// Options expands the pipeline into host construction options. The
// layer order is fixed: TCP, then the PSK envelope when present, then
// Noise for mutual authentication, then yamux multiplexing. Security
// and muxer are negotiated per connection via multistream-select.
func (p *Pipeline) Options() []libp2p.Option {
	opts := []libp2p.Option{
		libp2p.Identity(p.id.PrivateKey()),
		libp2p.Transport(tcp.NewTCPTransport),
		libp2p.Security(noise.ID, noise.New),
		libp2p.Muxer(yamux.ID, yamux.DefaultTransport),
		libp2p.UserAgent(p.userAgent),
	}
	if p.psk != nil {
		opts = append(opts, libp2p.PrivateNetwork(p.psk))
	}
	return opts
}

// Private reports whether the PSK envelope is part of the pipeline.
func (p *Pipeline) Private() bool {
	return p.psk != nil
}

// UserAgent returns the configured agent string.
func (p *Pipeline) UserAgent() string {
	return p.userAgent
}
