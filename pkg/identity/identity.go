// Package identity manages the node's long-term signing keypair and the
// peer identifier derived from it.
//
// The peer ID is a pure function of the public key, so two distinct keys
// cannot alias to the same identifier under normal cryptographic
// assumptions. Identities are ephemeral by default: a fresh keypair per
// process start. Callers that need a stable peer ID across restarts use
// Load or LoadOrGenerate and inject the result.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"filippo.io/edwards25519"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// Sentinel errors for identity operations.
var (
	// ErrUnsupportedKeyType indicates a key that is not Ed25519.
	ErrUnsupportedKeyType = errors.New("identity key must be Ed25519")

	// ErrInvalidPublicKey indicates key material that is not a valid
	// Ed25519 curve point.
	ErrInvalidPublicKey = errors.New("invalid Ed25519 public key")
)

// Identity is a node's signing keypair plus the peer ID derived from
// the public key. Immutable after construction.
type Identity struct {
	priv   crypto.PrivKey
	peerID peer.ID
}

// Generate creates a fresh Ed25519 identity. It never reuses key
// material; every call produces a new keypair and a new peer ID.
func Generate() (*Identity, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating identity key: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey wraps an existing private key, validating it and
// deriving the peer ID.
func FromPrivateKey(priv crypto.PrivKey) (*Identity, error) {
	if priv == nil {
		return nil, errors.New("nil private key")
	}
	if priv.Type() != crypto.Ed25519 {
		return nil, ErrUnsupportedKeyType
	}
	if err := validatePublicKey(priv.GetPublic()); err != nil {
		return nil, err
	}

	id, err := peer.IDFromPublicKey(priv.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("deriving peer ID: %w", err)
	}

	return &Identity{priv: priv, peerID: id}, nil
}

// Load reads a marshalled private key from path.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity key: %w", err)
	}
	priv, err := crypto.UnmarshalPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling identity key: %w", err)
	}
	return FromPrivateKey(priv)
}

// LoadOrGenerate loads the identity at path, generating and saving a
// fresh one if the file does not exist. This is the persistence policy
// for deployments where peer-ID churn would destabilize routing tables
// and discovery across restarts.
func LoadOrGenerate(path string) (*Identity, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking identity key: %w", err)
	}

	id, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	return id, nil
}

// Save writes the marshalled private key to path, mode 0600.
func (id *Identity) Save(path string) error {
	data, err := crypto.MarshalPrivateKey(id.priv)
	if err != nil {
		return fmt.Errorf("marshalling identity key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing identity key: %w", err)
	}
	return nil
}

// PrivateKey returns the signing key.
func (id *Identity) PrivateKey() crypto.PrivKey {
	return id.priv
}

// PublicKey returns the public half of the keypair.
func (id *Identity) PublicKey() crypto.PubKey {
	return id.priv.GetPublic()
}

// PeerID returns the identifier derived from the public key.
func (id *Identity) PeerID() peer.ID {
	return id.peerID
}

// validatePublicKey checks the key is a valid point on the Ed25519 curve.
func validatePublicKey(pub crypto.PubKey) error {
	raw, err := pub.Raw()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not a valid curve point", ErrInvalidPublicKey)
	}
	return nil
}
