package anchor

import (
	"context"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// Store is the persistence interface for anchor records, keyed by owner
// identity. Implementations must make Create and UpdateRoot atomic per
// owner: two racing Creates admit exactly one winner, and a concurrent
// reader observes either the pre-update or the post-update record, never a
// mix of the two.
type Store interface {
	// Create inserts rec if no record exists for rec.Owner, and returns
	// ErrAlreadyExists otherwise, leaving the stored record untouched.
	Create(ctx context.Context, rec *Record) error

	// Get returns the record for owner, or ErrNotFound.
	Get(ctx context.Context, owner trust.Identity) (*Record, error)

	// UpdateRoot atomically replaces the committed root and edge count and
	// stamps last_updated, returning the updated record. Returns
	// ErrNotFound if no record exists for owner.
	UpdateRoot(ctx context.Context, owner trust.Identity, root merkle.Hash, edgeCount uint16, updatedAt int64) (*Record, error)
}
