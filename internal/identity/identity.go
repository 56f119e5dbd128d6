// Package identity binds owner identities to keys and tokens. An identity
// in lattice is an ed25519 public key, so tokens are self-certifying: the
// token's subject names the key that must have signed it, and no central
// signing authority is involved. The package also derives the deterministic
// anchor address for an owner.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/psyto/lattice/pkg/trust"
)

// GenerateKey creates a fresh ed25519 owner keypair.
func GenerateKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return key, nil
}

// Owner returns the identity of key's public half.
func Owner(key ed25519.PrivateKey) trust.Identity {
	var id trust.Identity
	copy(id[:], key.Public().(ed25519.PublicKey))
	return id
}

// SaveKeyFile writes the key's 32-byte seed as hex, readable only by the
// owning user.
func SaveKeyFile(path string, key ed25519.PrivateKey) error {
	seed := hex.EncodeToString(key.Seed())
	if err := os.WriteFile(path, []byte(seed+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// LoadKeyFile reads a key file written by SaveKeyFile.
func LoadKeyFile(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
