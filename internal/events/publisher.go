// Package events publishes anchor lifecycle notifications so downstream
// consumers (indexers, score recomputers, monitors) can react to commitment
// changes without polling the API.
package events

import (
	"context"

	"github.com/google/uuid"
)

// TypeRootUpdated is the event type emitted after an anchor's committed
// root changes.
const TypeRootUpdated = "anchor.root_updated"

// RootUpdated describes one committed root change. Fields are wire-ready
// strings; consumers in other languages parse the hex without needing this
// package's types.
type RootUpdated struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	Owner      string `json:"owner"`
	MerkleRoot string `json:"merkle_root"`
	EdgeCount  uint16 `json:"edge_count"`
	UpdatedAt  int64  `json:"updated_at"`
}

// NewRootUpdated builds a RootUpdated event with a fresh event ID.
func NewRootUpdated(owner, merkleRoot string, edgeCount uint16, updatedAt int64) RootUpdated {
	return RootUpdated{
		EventID:    uuid.New().String(),
		Type:       TypeRootUpdated,
		Owner:      owner,
		MerkleRoot: merkleRoot,
		EdgeCount:  edgeCount,
		UpdatedAt:  updatedAt,
	}
}

// Publisher delivers anchor events to interested consumers. Implementations
// must be safe for concurrent use.
type Publisher interface {
	PublishRootUpdated(ctx context.Context, ev RootUpdated) error
	Close() error
}
