// Package cache provides an optional redis read-through cache for the proof
// read paths. It only ever holds records that were active when cached and is
// invalidated in lock-step with deletion; sentinel lookups are never cached
// so a later addProof with the same hash is always visible.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"proofvault/internal/proofs"
	"proofvault/pkg/domain"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps a redis client. A nil client yields a nil *Cache, and every
// method on a nil *Cache is a pass-through miss, so callers need no guards.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func hashKey(hash domain.Hash) string {
	return "proof:hash:" + hash.String()
}

func idKey(id domain.ProofID) string {
	return "proof:id:" + id.String()
}

type cachedProof struct {
	ID          uint64    `json:"id"`
	Hash        string    `json:"hash"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// IDByHash returns the cached id for an active hash, false on miss.
func (c *Cache) IDByHash(ctx context.Context, hash domain.Hash) (domain.ProofID, bool) {
	if c == nil {
		return domain.SentinelProofID, false
	}
	raw, err := c.client.Get(ctx, hashKey(hash)).Result()
	if err != nil {
		return domain.SentinelProofID, false
	}
	id, err := domain.ParseProofID(raw)
	if err != nil {
		return domain.SentinelProofID, false
	}
	return id, true
}

// StoreIDByHash caches a resolved active hash.
func (c *Cache) StoreIDByHash(ctx context.Context, hash domain.Hash, id domain.ProofID) {
	if c == nil || id.IsSentinel() {
		return
	}
	c.client.Set(ctx, hashKey(hash), id.String(), c.ttl)
}

// Proof returns cached metadata, false on miss.
func (c *Cache) Proof(ctx context.Context, id domain.ProofID) (proofs.Record, bool) {
	if c == nil {
		return proofs.Record{}, false
	}
	raw, err := c.client.Get(ctx, idKey(id)).Bytes()
	if err != nil {
		return proofs.Record{}, false
	}
	var cached cachedProof
	if err := json.Unmarshal(raw, &cached); err != nil {
		return proofs.Record{}, false
	}
	hash, err := domain.ParseHash(cached.Hash)
	if err != nil {
		return proofs.Record{}, false
	}
	return proofs.Record{
		ID:          domain.ProofID(cached.ID),
		Hash:        hash,
		Timestamp:   cached.Timestamp,
		Description: cached.Description,
	}, true
}

// StoreProof caches active proof metadata.
func (c *Cache) StoreProof(ctx context.Context, record proofs.Record) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(cachedProof{
		ID:          uint64(record.ID),
		Hash:        record.Hash.String(),
		Timestamp:   record.Timestamp,
		Description: record.Description,
	})
	if err != nil {
		return
	}
	c.client.Set(ctx, idKey(record.ID), raw, c.ttl)
}

// Invalidate drops both directions for a deleted proof.
func (c *Cache) Invalidate(ctx context.Context, hash domain.Hash, id domain.ProofID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, hashKey(hash), idKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
