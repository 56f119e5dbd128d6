package anchor

import (
	"context"
	"sync"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// MemoryStore is an in-memory, thread-safe Store. It is primarily useful for
// tests and single-process deployments; production setups use PostgresStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[trust.Identity]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[trust.Identity]*Record)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.Owner]; ok {
		return ErrAlreadyExists
	}
	m.records[rec.Owner] = rec.Clone()
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, owner trust.Identity) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[owner]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// UpdateRoot implements Store.
func (m *MemoryStore) UpdateRoot(_ context.Context, owner trust.Identity, root merkle.Hash, edgeCount uint16, updatedAt int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[owner]
	if !ok {
		return nil, ErrNotFound
	}
	rec.MerkleRoot = root
	rec.EdgeCount = edgeCount
	rec.LastUpdated = updatedAt
	return rec.Clone(), nil
}
