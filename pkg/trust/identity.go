// Package trust defines the trust-graph domain model: 32-byte identities,
// weighted directional edges between them, and the canonical edge encoding
// that external tree builders hash into commitment leaves.
package trust

import (
	"encoding/hex"
	"fmt"
)

// IdentitySize is the width in bytes of an identity handle.
const IdentitySize = 32

// Identity is an opaque 32-byte identity handle. In this deployment it is an
// ed25519 public key, but nothing in the edge encoding depends on that.
type Identity [IdentitySize]byte

// IdentityFromBytes copies b into an Identity, rejecting any length but
// IdentitySize.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("identity must be %d bytes, got %d", IdentitySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseIdentity decodes a 64-character hex string into an Identity.
func ParseIdentity(s string) (Identity, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Identity{}, fmt.Errorf("parse identity: %w", err)
	}
	return IdentityFromBytes(b)
}

// String returns the lowercase hex form of id.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler; identities travel as hex in JSON.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
