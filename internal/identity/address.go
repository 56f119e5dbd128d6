package identity

import (
	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// anchorSeed is the domain prefix for anchor address derivation.
const anchorSeed = "trust"

// anchorBump is the derivation nonce recorded alongside every anchor. The
// keccak address space has no off-curve constraint to skip over, so the
// first candidate always holds and the bump is a constant; it is kept in
// the record layout so substrate ports that do need to search downward from
// 255 stay layout-compatible.
const anchorBump = 0xff

// AnchorAddress derives the deterministic address of owner's anchor record:
// keccak256("trust" || owner || bump). One owner, one address, no service
// round-trip needed to compute it.
func AnchorAddress(owner trust.Identity) (merkle.Hash, uint8) {
	buf := make([]byte, 0, len(anchorSeed)+trust.IdentitySize+1)
	buf = append(buf, anchorSeed...)
	buf = append(buf, owner[:]...)
	buf = append(buf, anchorBump)
	return merkle.Sum(buf), anchorBump
}
