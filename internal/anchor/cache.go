package anchor

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// cacheKeyPrefix namespaces anchor records in Redis.
const cacheKeyPrefix = "lattice:anchor:"

// CachedStore layers a Redis read-through cache over another Store. Records
// are cached in their fixed binary layout, so a hit deserializes a complete
// record or nothing: the cache is only ever written after the inner store
// has committed, and cache failures degrade to inner-store reads rather
// than failing the operation.
//
// Two racing root updates can leave the cache one update behind until the
// TTL expires; a stale hit is still a complete, previously committed record.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps inner with a Redis cache. A zero ttl defaults to one
// minute.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Create implements Store.
func (c *CachedStore) Create(ctx context.Context, rec *Record) error {
	if err := c.inner.Create(ctx, rec); err != nil {
		return err
	}
	c.put(ctx, rec)
	return nil
}

// Get implements Store.
func (c *CachedStore) Get(ctx context.Context, owner trust.Identity) (*Record, error) {
	key := cacheKeyPrefix + owner.String()

	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec Record
		if uerr := rec.UnmarshalBinary(val); uerr == nil {
			return &rec, nil
		}
		// Corrupt cache entry: drop it and fall through to the inner store.
		c.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("anchor cache read failed", zap.Error(err))
	}

	rec, err := c.inner.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.put(ctx, rec)
	return rec, nil
}

// UpdateRoot implements Store.
func (c *CachedStore) UpdateRoot(ctx context.Context, owner trust.Identity, root merkle.Hash, edgeCount uint16, updatedAt int64) (*Record, error) {
	rec, err := c.inner.UpdateRoot(ctx, owner, root, edgeCount, updatedAt)
	if err != nil {
		return nil, err
	}
	c.put(ctx, rec)
	return rec, nil
}

func (c *CachedStore) put(ctx context.Context, rec *Record) {
	b, err := rec.MarshalBinary()
	if err != nil {
		return
	}
	key := cacheKeyPrefix + rec.Owner.String()
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("anchor cache write failed", zap.Error(err))
	}
}
