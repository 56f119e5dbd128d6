// Package anchor implements trust anchor records and their state
// transitions. An anchor is one fixed-size record per owner identity holding
// the Merkle root that commits to the owner's off-chain trust edge set;
// creating, updating, and verifying against that commitment is the whole of
// the service's write surface.
package anchor

import (
	"encoding/binary"
	"fmt"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// RecordSize is the width of the fixed binary record layout: owner (32) ||
// merkle_root (32) || edge_count (2) || last_updated (8) || created_at (8) ||
// bump (1), integers little-endian.
const RecordSize = 83

// Record is the persisted state of one trust anchor. The record stays the
// same size whether the owner claims zero edges or the uint16 maximum; only
// the commitment inside it changes.
//
// A MerkleRoot equal to merkle.ZeroHash means the owner currently commits to
// no edges. There is no separate empty flag; the sentinel is the encoding.
type Record struct {
	Owner       trust.Identity `json:"owner"`
	MerkleRoot  merkle.Hash    `json:"merkle_root"`
	EdgeCount   uint16         `json:"edge_count"`
	LastUpdated int64          `json:"last_updated"`
	CreatedAt   int64          `json:"created_at"`
	Bump        uint8          `json:"bump"`
}

// MarshalBinary encodes the record into its fixed RecordSize layout.
func (r *Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf[0:32], r.Owner[:])
	copy(buf[32:64], r.MerkleRoot[:])
	binary.LittleEndian.PutUint16(buf[64:66], r.EdgeCount)
	binary.LittleEndian.PutUint64(buf[66:74], uint64(r.LastUpdated))
	binary.LittleEndian.PutUint64(buf[74:82], uint64(r.CreatedAt))
	buf[82] = r.Bump
	return buf, nil
}

// UnmarshalBinary decodes a fixed-layout record produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("anchor record must be %d bytes, got %d", RecordSize, len(data))
	}
	copy(r.Owner[:], data[0:32])
	copy(r.MerkleRoot[:], data[32:64])
	r.EdgeCount = binary.LittleEndian.Uint16(data[64:66])
	r.LastUpdated = int64(binary.LittleEndian.Uint64(data[66:74]))
	r.CreatedAt = int64(binary.LittleEndian.Uint64(data[74:82]))
	r.Bump = data[82]
	return nil
}

// Clone returns a copy of r so callers can hand records out without
// aliasing store-owned state.
func (r *Record) Clone() *Record {
	cp := *r
	return &cp
}
