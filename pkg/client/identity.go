package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/psyto/lattice/pkg/trust"
)

// OwnerIdentity derives the trust identity for an ed25519 private key.
// The identity is the key's public half.
func OwnerIdentity(key ed25519.PrivateKey) trust.Identity {
	var id trust.Identity
	copy(id[:], key.Public().(ed25519.PublicKey))
	return id
}

// GenerateOwnerKey creates a new ed25519 owner key.
func GenerateOwnerKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate owner key: %w", err)
	}
	return key, nil
}

// LoadOwnerKey reads an ed25519 key from path. The file holds the
// hex-encoded 32-byte seed, as written by SaveOwnerKey and the
// 'lattice keygen' command.
//
//	key, err := client.LoadOwnerKey(os.ExpandEnv("$HOME/.lattice/owner.key"))
func LoadOwnerKey(path string) (ed25519.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("decode key file %q: %w", path, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key file %q holds %d seed bytes, want %d", path, len(seed), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// SaveOwnerKey writes the key's hex-encoded seed to path with owner-only
// permissions.
func SaveOwnerKey(path string, key ed25519.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("owner key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	data := hex.EncodeToString(key.Seed()) + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// NewFromKeyFile creates an owner-authenticated SDK client by loading the
// key written by 'lattice keygen' from path.
//
// Additional options can be appended:
//
//	c, err := client.NewFromKeyFile(
//	    "https://lattice.example.com",
//	    os.ExpandEnv("$HOME/.lattice/owner.key"),
//	    client.WithTokenTTL(15*time.Minute),
//	)
func NewFromKeyFile(baseURL, path string, opts ...Option) (*Client, error) {
	key, err := LoadOwnerKey(path)
	if err != nil {
		return nil, err
	}
	return New(baseURL, append([]Option{WithOwnerKey(key)}, opts...)...)
}

// WithOwnerKeyFile is the functional-option form of NewFromKeyFile.
// Use it when you need to combine key loading with other New() options:
//
//	c, err := client.New(baseURL,
//	    client.WithOwnerKeyFile(keyPath),
//	    client.WithHTTPClient(hc),
//	)
func WithOwnerKeyFile(path string) Option {
	return func(c *Client) error {
		key, err := LoadOwnerKey(path)
		if err != nil {
			return err
		}
		return WithOwnerKey(key)(c)
	}
}
