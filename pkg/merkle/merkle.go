// Package merkle implements the lattice commitment scheme: domain-separated
// keccak-256 hashing and index-addressed inclusion proofs.
//
// A leaf hash is keccak256(0x00 || data) and an interior node hash is
// keccak256(0x01 || left || right). The one-byte prefixes keep the two hash
// domains disjoint, so an interior node can never be replayed as a leaf
// (and vice versa) in a forged proof. Node hashing is order-sensitive;
// together with the leaf index this pins every leaf to one position.
//
// The scheme is shared verbatim by off-chain tree builders: any divergence
// in prefixes, digest choice, or walk order breaks proof compatibility.
package merkle

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashSize is the width in bytes of every digest in the scheme.
const HashSize = 32

// Domain-separation prefixes for leaf and interior-node hashing.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// Hash is a 32-byte keccak-256 digest.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest. An anchor whose root equals ZeroHash
// commits to an empty edge set; the sentinel is part of the wire protocol
// and must be reproduced bit-exactly, with no auxiliary "empty" flag.
var ZeroHash Hash

// HashFromBytes copies b into a Hash, rejecting any length but HashSize.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ParseHash decodes a 64-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash: %w", err)
	}
	return HashFromBytes(b)
}

// String returns the lowercase hex form of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the empty-commitment sentinel.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements encoding.TextMarshaler; hashes travel as hex in JSON.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Sum returns the raw keccak-256 digest of data, with no domain prefix.
// Commitment code must not call Sum directly; leaves and interior nodes go
// through HashLeaf and HashNodes, which prepend the domain prefixes.
func Sum(data []byte) Hash {
	return keccak(data)
}

// HashLeaf hashes data into a leaf: keccak256(0x00 || data).
func HashLeaf(data []byte) Hash {
	return keccak([]byte{leafPrefix}, data)
}

// HashNodes hashes two children into their parent: keccak256(0x01 || left || right).
// The child order is significant: HashNodes(a, b) != HashNodes(b, a) for a != b.
func HashNodes(left, right Hash) Hash {
	return keccak([]byte{nodePrefix}, left[:], right[:])
}

// VerifyProof reports whether proof connects leaf at the given index to root.
//
// The walk starts at the leaf and consumes one sibling per level: an even
// index places the running hash on the left, an odd index on the right, and
// the index halves after each step. The proof is valid when the final
// running hash equals root. An empty proof with index 0 degenerates to the
// single-leaf tree, where the leaf is the root.
//
// VerifyProof is pure and depth-agnostic; it imposes no bound on proof
// length beyond what the caller's edge count implies.
func VerifyProof(proof []Hash, root, leaf Hash, index uint32) bool {
	computed := leaf
	idx := index
	for _, sibling := range proof {
		if idx%2 == 0 {
			computed = HashNodes(computed, sibling)
		} else {
			computed = HashNodes(sibling, computed)
		}
		idx /= 2
	}
	return computed == root
}

// keccak digests the concatenation of parts with legacy keccak-256 padding.
// sha3.NewLegacyKeccak256, not sha3.New256: the two differ in padding and
// produce unrelated digests.
func keccak(parts ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		d.Write(p)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}
