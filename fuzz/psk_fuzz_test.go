package fuzz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AXI0MH1VE/meshwire/pkg/psk"
)

// FuzzPSKDecode tests swarm key file parsing with malformed data.
// This helps find panics or issues when parsing corrupted key files.
func FuzzPSKDecode(f *testing.F) {
	// Add seed corpus

	// Valid key file
	validKey := psk.PathHeader + "\n" + psk.EncodingHeader + "\n" +
		strings.Repeat("ab", 32) + "\n"
	f.Add([]byte(validKey))

	// Valid without trailing newline
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n" + strings.Repeat("00", 32)))

	// CRLF line endings
	f.Add([]byte(psk.PathHeader + "\r\n" + psk.EncodingHeader + "\r\n" + strings.Repeat("ff", 32) + "\r\n"))

	// Wrong path header
	f.Add([]byte("/key/swarm/psk/2.0.0/\n" + psk.EncodingHeader + "\n" + strings.Repeat("ab", 32)))

	// Wrong encoding header
	f.Add([]byte(psk.PathHeader + "\n/base64/\n" + strings.Repeat("ab", 32)))

	// Header only
	f.Add([]byte(psk.PathHeader))
	f.Add([]byte(psk.PathHeader + "\n"))
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader))
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n"))

	// Truncated key (63 hex characters)
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n" + strings.Repeat("a", 63)))

	// Oversized key (66 hex characters)
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n" + strings.Repeat("a", 66)))

	// Non-hex payload
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\nnot hex at all zzzz"))

	// Uppercase hex
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n" + strings.Repeat("AB", 32)))

	// Payload with surrounding whitespace
	f.Add([]byte(psk.PathHeader + "\n" + psk.EncodingHeader + "\n  " + strings.Repeat("ab", 32) + "  \n"))

	// Trailing garbage lines
	f.Add([]byte(validKey + "extra\nlines\nhere"))

	// Empty input
	f.Add([]byte{})
	f.Add([]byte("\n"))
	f.Add([]byte("\n\n\n"))

	// Binary garbage
	f.Add([]byte{0x00, 0x01, 0x02, 0xFF, 0xFE})

	// Very long single line
	f.Add(bytes.Repeat([]byte("a"), 100000))

	f.Fuzz(func(t *testing.T, data []byte) {
		// This should not panic regardless of input
		key, err := psk.Decode(data)
		if err != nil {
			return
		}

		// A successful decode always yields exactly 32 bytes.
		if len(key) != psk.KeySize {
			t.Fatalf("decoded key has %d bytes, want %d", len(key), psk.KeySize)
		}

		// Re-encoding a decoded key must round-trip.
		encoded, err := psk.Encode(key)
		if err != nil {
			t.Fatalf("re-encoding decoded key: %v", err)
		}
		again, err := psk.Decode(encoded)
		if err != nil {
			t.Fatalf("re-decoding encoded key: %v", err)
		}
		if !bytes.Equal(key, again) {
			t.Fatalf("round-trip mismatch: %x != %x", key, again)
		}

		// Fingerprinting must work on any valid key.
		if fp := psk.Fingerprint(key); len(fp) != 16 {
			t.Fatalf("fingerprint has %d characters, want 16", len(fp))
		}
	})
}

// FuzzPSKEncode tests that Encode rejects every length except 32 bytes
// and that accepted keys survive a decode.
func FuzzPSKEncode(f *testing.F) {
	// Add seed corpus
	f.Add([]byte{})
	f.Add(make([]byte, 31))
	f.Add(make([]byte, 32))
	f.Add(make([]byte, 33))
	f.Add(make([]byte, 64))
	f.Add(bytes.Repeat([]byte{0xFF}, 32))

	f.Fuzz(func(t *testing.T, key []byte) {
		encoded, err := psk.Encode(key)
		if len(key) != psk.KeySize {
			if err == nil {
				t.Fatalf("Encode accepted %d-byte key", len(key))
			}
			return
		}
		if err != nil {
			t.Fatalf("Encode rejected 32-byte key: %v", err)
		}

		decoded, err := psk.Decode(encoded)
		if err != nil {
			t.Fatalf("decoding encoded key: %v", err)
		}
		if !bytes.Equal(key, decoded) {
			t.Fatalf("round-trip mismatch: %x != %x", key, decoded)
		}
	})
}
