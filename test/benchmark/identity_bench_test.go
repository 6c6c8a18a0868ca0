package benchmark

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/AXI0MH1VE/meshwire/pkg/identity"
)

// Benchmark identity generation (keypair plus peer ID derivation)
func BenchmarkIdentityGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := identity.Generate(); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark wrapping an existing key: curve point validation plus
// peer ID derivation, the cost paid when injecting a persisted key
func BenchmarkIdentityFromPrivateKey(b *testing.B) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := identity.FromPrivateKey(priv); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark the persistence round trip
func BenchmarkIdentitySave(b *testing.B) {
	id, err := identity.Generate()
	if err != nil {
		b.Fatal(err)
	}
	path := b.TempDir() + "/identity.key"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := id.Save(path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIdentityLoad(b *testing.B) {
	id, err := identity.Generate()
	if err != nil {
		b.Fatal(err)
	}
	path := b.TempDir() + "/identity.key"
	if err := id.Save(path); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := identity.Load(path); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark LoadOrGenerate on an existing key, the warm start path
func BenchmarkIdentityLoadOrGenerate_Warm(b *testing.B) {
	path := b.TempDir() + "/identity.key"
	if _, err := identity.LoadOrGenerate(path); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := identity.LoadOrGenerate(path); err != nil {
			b.Fatal(err)
		}
	}
}
