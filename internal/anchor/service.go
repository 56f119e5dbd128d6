package anchor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/psyto/lattice/internal/events"
	"github.com/psyto/lattice/internal/identity"
	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// Service contains the business logic for the anchor lifecycle: initialize,
// update the committed root, and verify edge inclusion. All commitment
// semantics live here; the Store underneath only persists records.
type Service struct {
	store     Store
	publisher events.Publisher // nil = no event publication
	logger    *zap.Logger
}

// NewService creates a Service over the given store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// SetPublisher configures the event publisher notified after successful root
// updates. Set to nil to disable publication.
func (s *Service) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// Create initializes the anchor for owner with an empty commitment: zero
// root, zero edges, both timestamps set to now. Each owner gets exactly one
// anchor; a second Create returns ErrAlreadyExists and leaves the first
// record untouched.
func (s *Service) Create(ctx context.Context, owner trust.Identity) (*Record, error) {
	_, bump := identity.AnchorAddress(owner)
	now := time.Now().Unix()
	rec := &Record{
		Owner:       owner,
		MerkleRoot:  merkle.ZeroHash,
		EdgeCount:   0,
		LastUpdated: now,
		CreatedAt:   now,
		Bump:        bump,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("anchor initialized", zap.String("owner", owner.String()))
	return rec, nil
}

// Get returns the anchor record for owner, or ErrNotFound.
func (s *Service) Get(ctx context.Context, owner trust.Identity) (*Record, error) {
	return s.store.Get(ctx, owner)
}

// UpdateRoot replaces owner's committed root and edge count. Only the owner
// may update: caller is the authenticated identity and must equal the
// recorded owner or the update fails with ErrNotAuthorized.
//
// The only validated relation between root and count is the empty-set rule:
// an update claiming zero edges must carry the zero root, and a zero count
// with any other root fails with ErrEdgeCountOverflow. A non-zero count is
// accepted with any root, including the zero root; the service cannot see
// the off-chain edge set, so consistency beyond the sentinel is the
// builder's responsibility.
func (s *Service) UpdateRoot(ctx context.Context, caller, owner trust.Identity, newRoot merkle.Hash, newCount uint16) (*Record, error) {
	rec, err := s.store.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if caller != rec.Owner {
		return nil, ErrNotAuthorized
	}
	if newCount == 0 && !newRoot.IsZero() {
		return nil, ErrEdgeCountOverflow
	}

	updated, err := s.store.UpdateRoot(ctx, owner, newRoot, newCount, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	s.logger.Info("root updated",
		zap.String("owner", owner.String()),
		zap.Uint16("edge_count", updated.EdgeCount),
		zap.String("merkle_root", updated.MerkleRoot.String()),
	)
	s.publishRootUpdated(ctx, updated)
	return updated, nil
}

// VerifyEdge checks that edge is included in owner's committed set. The
// edge is validated first (a malformed edge fails regardless of proof),
// then its leaf hash is walked against the committed root using proof and
// leafIndex. A structurally sound proof that does not reach the root fails
// with ErrInvalidMerkleProof.
//
// Verification is read-only and never mutates the anchor.
func (s *Service) VerifyEdge(ctx context.Context, owner trust.Identity, edge trust.Edge, proof []merkle.Hash, leafIndex uint32) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	rec, err := s.store.Get(ctx, owner)
	if err != nil {
		return err
	}
	if !merkle.VerifyProof(proof, rec.MerkleRoot, edge.Leaf(), leafIndex) {
		return ErrInvalidMerkleProof
	}

	s.logger.Info("edge verified",
		zap.String("owner", owner.String()),
		zap.String("trustee", edge.Trustee.String()),
		zap.String("dimension", edge.Dimension.String()),
		zap.Uint16("weight", edge.Weight),
	)
	return nil
}

// publishRootUpdated emits a root-update event in a non-fatal manner.
func (s *Service) publishRootUpdated(ctx context.Context, rec *Record) {
	if s.publisher == nil {
		return
	}
	ev := events.NewRootUpdated(rec.Owner.String(), rec.MerkleRoot.String(), rec.EdgeCount, rec.LastUpdated)
	if err := s.publisher.PublishRootUpdated(ctx, ev); err != nil {
		s.logger.Error("root update event publish failed (non-fatal)",
			zap.String("owner", rec.Owner.String()),
			zap.Error(err),
		)
	}
}
