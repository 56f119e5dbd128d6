package anchor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// PostgresStore persists anchor records in PostgreSQL. It implements Store.
//
// Per-owner atomicity comes from the database itself: Create relies on the
// primary-key conflict clause as a compare-and-insert, and UpdateRoot is a
// single UPDATE ... RETURNING, so no two service instances can interleave
// half-applied records.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO trust_anchors (owner, merkle_root, edge_count, last_updated, created_at, bump)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner) DO NOTHING`,
		rec.Owner[:], rec.MerkleRoot[:], int32(rec.EdgeCount),
		rec.LastUpdated, rec.CreatedAt, int16(rec.Bump),
	)
	if err != nil {
		return fmt.Errorf("insert anchor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}

	s.logger.Debug("anchor row inserted", zap.String("owner", rec.Owner.String()))
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, owner trust.Identity) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT owner, merkle_root, edge_count, last_updated, created_at, bump
		 FROM trust_anchors WHERE owner = $1`,
		owner[:],
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get anchor: %w", err)
	}
	return rec, nil
}

// UpdateRoot implements Store.
func (s *PostgresStore) UpdateRoot(ctx context.Context, owner trust.Identity, root merkle.Hash, edgeCount uint16, updatedAt int64) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE trust_anchors
		 SET merkle_root = $2, edge_count = $3, last_updated = $4
		 WHERE owner = $1
		 RETURNING owner, merkle_root, edge_count, last_updated, created_at, bump`,
		owner[:], root[:], int32(edgeCount), updatedAt,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update anchor root: %w", err)
	}

	s.logger.Debug("anchor row updated",
		zap.String("owner", owner.String()),
		zap.Uint16("edge_count", edgeCount),
	)
	return rec, nil
}

// scanRecord scans one trust_anchors row in schema column order.
func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec       Record
		ownerRaw  []byte
		rootRaw   []byte
		edgeCount int32
		bump      int16
	)
	if err := row.Scan(&ownerRaw, &rootRaw, &edgeCount, &rec.LastUpdated, &rec.CreatedAt, &bump); err != nil {
		return nil, err
	}

	owner, err := trust.IdentityFromBytes(ownerRaw)
	if err != nil {
		return nil, fmt.Errorf("scan anchor owner: %w", err)
	}
	root, err := merkle.HashFromBytes(rootRaw)
	if err != nil {
		return nil, fmt.Errorf("scan anchor root: %w", err)
	}
	rec.Owner = owner
	rec.MerkleRoot = root
	rec.EdgeCount = uint16(edgeCount)
	rec.Bump = uint8(bump)
	return &rec, nil
}
