package anchor

import (
	"errors"

	"github.com/psyto/lattice/pkg/trust"
)

var (
	// ErrNotFound is returned when no anchor record exists for an owner.
	ErrNotFound = errors.New("trust anchor not found")

	// ErrAlreadyExists is returned when an owner initializes a second anchor.
	// The owner's existing record is left untouched.
	ErrAlreadyExists = errors.New("trust anchor already exists")

	// ErrNotAuthorized is returned when a caller other than the recorded
	// owner attempts to update an anchor.
	ErrNotAuthorized = errors.New("caller is not the anchor owner")

	// ErrEdgeCountOverflow is returned when a root update pairs a zero edge
	// count with a non-zero root. The name is part of the error vocabulary
	// shared with external tree builders and cannot change without
	// coordinating a protocol rev.
	ErrEdgeCountOverflow = errors.New("edge count overflow")

	// ErrInvalidMerkleProof is returned when an inclusion proof does not
	// connect the claimed edge to the committed root.
	ErrInvalidMerkleProof = errors.New("invalid merkle proof")
)

// ErrInvalidTrustWeight is returned when a verification request carries a
// weight above trust.MaxWeight. It is the same value as
// trust.ErrInvalidWeight, re-exported so service callers branch on one
// package's vocabulary.
var ErrInvalidTrustWeight = trust.ErrInvalidWeight
