// Package psk loads and writes swarm pre-shared keys for private mesh
// overlays. A key file gates transport-level access: only peers holding
// the same 32-byte secret can complete the connection handshake.
//
// The on-disk format is three lines:
//
//	/key/swarm/psk/1.0.0/
//	/base16/
//	<64 hex characters>
//
// Any structural deviation is a distinct load error so callers can tell
// a missing file from a truncated key from a wrong header.
package psk

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/libp2p/go-libp2p/core/pnet"
	"golang.org/x/crypto/sha3"
)

const (
	// KeySize is the required decoded key length in bytes.
	KeySize = 32

	// PathHeader is the mandatory first line of a key file.
	PathHeader = "/key/swarm/psk/1.0.0/"

	// EncodingHeader is the mandatory second line of a key file.
	// Base16 is the only supported encoding.
	EncodingHeader = "/base16/"

	// fingerprintSize is the length of the Shake128 digest used for
	// log-safe key identification.
	fingerprintSize = 8
)

// Load errors. Each structural deviation maps to exactly one of these.
var (
	// ErrMissingFile indicates the key file does not exist.
	ErrMissingFile = errors.New("pre-shared key file not found")

	// ErrInvalidHeader indicates the first line is not the expected
	// /key/swarm/psk/1.0.0/ path header.
	ErrInvalidHeader = errors.New("invalid pre-shared key header")

	// ErrUnsupportedEncoding indicates the second line names an encoding
	// other than /base16/.
	ErrUnsupportedEncoding = errors.New("unsupported pre-shared key encoding")

	// ErrMissingKeyData indicates the file has no key payload line.
	ErrMissingKeyData = errors.New("missing pre-shared key data")

	// ErrInvalidLength indicates the payload did not decode to exactly
	// 32 bytes. Truncated or odd-length hex also reports this error.
	ErrInvalidLength = errors.New("pre-shared key must decode to exactly 32 bytes")

	// ErrTrailingData indicates content after the key payload line.
	// Trailing newlines are fine; anything else is rejected rather than
	// silently ignored.
	ErrTrailingData = errors.New("unexpected data after pre-shared key")
)

// Load reads a pre-shared key from the file at path.
// It has no side effects beyond the read.
func Load(path string) (pnet.PSK, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("reading pre-shared key: %w", err)
	}
	return Decode(data)
}

// Decode parses key file contents. See Load for the error contract.
func Decode(data []byte) (pnet.PSK, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	if len(lines) < 1 || lines[0] != PathHeader {
		return nil, ErrInvalidHeader
	}
	if len(lines) < 2 || lines[1] != EncodingHeader {
		return nil, ErrUnsupportedEncoding
	}
	if len(lines) < 3 || strings.TrimSpace(lines[2]) == "" {
		return nil, ErrMissingKeyData
	}

	payload := strings.TrimSpace(lines[2])
	key, err := hex.DecodeString(payload)
	if err != nil || len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d hex characters", ErrInvalidLength, len(payload))
	}

	for _, extra := range lines[3:] {
		if strings.TrimSpace(extra) != "" {
			return nil, ErrTrailingData
		}
	}

	return pnet.PSK(key), nil
}

// Generate produces a fresh random 32-byte key.
func Generate() (pnet.PSK, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating pre-shared key: %w", err)
	}
	return pnet.PSK(key), nil
}

// Encode renders a key in the three-line file format, including a
// trailing newline.
func Encode(key pnet.PSK) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidLength
	}
	return []byte(PathHeader + "\n" + EncodingHeader + "\n" + hex.EncodeToString(key) + "\n"), nil
}

// Save writes a key to path in the file format, mode 0600.
func Save(path string, key pnet.PSK) error {
	data, err := Encode(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing pre-shared key: %w", err)
	}
	return nil
}

// Fingerprint returns a short hex digest of the key, safe to log.
// The key material itself must never be logged.
func Fingerprint(key pnet.PSK) string {
	sum := make([]byte, fingerprintSize)
	sha3.ShakeSum128(sum, key)
	return hex.EncodeToString(sum)
}
