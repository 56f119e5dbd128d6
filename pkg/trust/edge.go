package trust

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/psyto/lattice/pkg/merkle"
)

var (
	// ErrInvalidWeight is returned for trust weights above MaxWeight.
	ErrInvalidWeight = errors.New("trust weight must be between 0 and 10000")

	// ErrInvalidDimension is returned for dimension tags outside the
	// defined enum range.
	ErrInvalidDimension = errors.New("unknown trust dimension")

	// ErrBadEdgeLength is returned when a canonical encoding is not exactly
	// EncodedEdgeSize bytes.
	ErrBadEdgeLength = errors.New("canonical edge encoding must be 43 bytes")
)

// Dimension tags the facet of trust an edge asserts. The numeric tag values
// are frozen into the canonical edge encoding.
type Dimension uint8

const (
	DimensionTrading Dimension = iota
	DimensionCivic
	DimensionDeveloper
	DimensionInfra
	DimensionCreator
)

// Valid reports whether d is one of the defined dimension tags.
func (d Dimension) Valid() bool {
	return d <= DimensionCreator
}

func (d Dimension) String() string {
	switch d {
	case DimensionTrading:
		return "trading"
	case DimensionCivic:
		return "civic"
	case DimensionDeveloper:
		return "developer"
	case DimensionInfra:
		return "infra"
	case DimensionCreator:
		return "creator"
	default:
		return fmt.Sprintf("dimension(%d)", uint8(d))
	}
}

// ParseDimension maps a dimension name (case-insensitive) to its tag.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(s) {
	case "trading":
		return DimensionTrading, nil
	case "civic":
		return DimensionCivic, nil
	case "developer":
		return DimensionDeveloper, nil
	case "infra":
		return DimensionInfra, nil
	case "creator":
		return DimensionCreator, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDimension, s)
	}
}

// MaxWeight is the largest representable trust weight: 10000 basis
// points, i.e. 100%.
const MaxWeight = 10000

// EncodedEdgeSize is the width of the canonical edge encoding:
// trustee (32) || dimension (1) || weight (2, little-endian) ||
// created_at (8, little-endian).
const EncodedEdgeSize = IdentitySize + 1 + 2 + 8

// Edge is one directed, weighted trust claim. Edges are never persisted by
// the anchor service; they live with their owner off-chain and surface only
// through the canonical encoding and the leaf hash derived from it.
type Edge struct {
	Trustee   Identity  `json:"trustee"`
	Dimension Dimension `json:"dimension"`
	Weight    uint16    `json:"weight"`
	CreatedAt int64     `json:"created_at"`
}

// Validate checks the edge's dimension tag and weight range.
func (e Edge) Validate() error {
	if !e.Dimension.Valid() {
		return fmt.Errorf("%w: tag %d", ErrInvalidDimension, uint8(e.Dimension))
	}
	if e.Weight > MaxWeight {
		return ErrInvalidWeight
	}
	return nil
}

// Encode returns the canonical EncodedEdgeSize-byte encoding. Field order,
// field widths, and little-endian integer order are all frozen: two edges
// with the same field values encode to identical bytes everywhere, which is
// what makes independently built trees agree on leaf hashes.
func (e Edge) Encode() []byte {
	buf := make([]byte, EncodedEdgeSize)
	copy(buf[:IdentitySize], e.Trustee[:])
	buf[IdentitySize] = byte(e.Dimension)
	binary.LittleEndian.PutUint16(buf[33:35], e.Weight)
	binary.LittleEndian.PutUint64(buf[35:43], uint64(e.CreatedAt))
	return buf
}

// DecodeEdge parses a canonical encoding back into an Edge, rejecting
// inputs of the wrong length and field values outside their ranges.
func DecodeEdge(data []byte) (Edge, error) {
	if len(data) != EncodedEdgeSize {
		return Edge{}, fmt.Errorf("%w, got %d", ErrBadEdgeLength, len(data))
	}
	var e Edge
	copy(e.Trustee[:], data[:IdentitySize])
	e.Dimension = Dimension(data[IdentitySize])
	e.Weight = binary.LittleEndian.Uint16(data[33:35])
	e.CreatedAt = int64(binary.LittleEndian.Uint64(data[35:43]))
	if err := e.Validate(); err != nil {
		return Edge{}, err
	}
	return e, nil
}

// Leaf returns the edge's leaf hash in the commitment tree.
func (e Edge) Leaf() merkle.Hash {
	return merkle.HashLeaf(e.Encode())
}

// BuildTree builds the commitment tree over edges in slice order. The order
// is significant: it fixes each edge's leaf index, and proofs are issued
// against that index.
func BuildTree(edges []Edge) *merkle.Tree {
	leaves := make([]merkle.Hash, len(edges))
	for i, e := range edges {
		leaves[i] = e.Leaf()
	}
	return merkle.NewTree(leaves)
}
