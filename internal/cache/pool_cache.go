package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"review-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const poolCacheKey = "review:pool_entries"

// PoolLoader is the repository read the cache sits in front of.
type PoolLoader interface {
	FindAll(ctx context.Context) ([]models.PoolEntry, error)
}

// CachedPoolSource serves curated-pool distractor samples from a Redis-cached
// copy of the pool. The pool changes rarely, so a plain TTL keeps it fresh
// enough; sampling happens locally so every question still draws
// independently.
type CachedPoolSource struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	rand   *rand.Rand
}

func NewCachedPoolSource(client *redis.Client, loader PoolLoader, ttl time.Duration) *CachedPoolSource {
	return &CachedPoolSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SampleDistractors draws up to count random pool entries not in excludeIDs.
func (c *CachedPoolSource) SampleDistractors(ctx context.Context, excludeIDs []string, count int) ([]models.PoolEntry, error) {
	if count <= 0 {
		return nil, nil
	}
	entries, err := c.entries(ctx)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	eligible := make([]models.PoolEntry, 0, len(entries))
	for _, e := range entries {
		if !excluded[e.ID] {
			eligible = append(eligible, e)
		}
	}

	c.rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if len(eligible) > count {
		eligible = eligible[:count]
	}
	return eligible, nil
}

// entries returns the cached pool, falling back to Mongo on a miss. Cache
// failures degrade to a direct load rather than failing the question.
func (c *CachedPoolSource) entries(ctx context.Context) ([]models.PoolEntry, error) {
	raw, err := c.client.Get(ctx, poolCacheKey).Bytes()
	if err == nil {
		var entries []models.PoolEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		log.Printf("corrupt pool cache entry, reloading: %v", err)
	} else if err != redis.Nil {
		log.Printf("pool cache read failed, falling back to store: %v", err)
	}

	entries, err := c.loader.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load distractor pool: %w", err)
	}

	if raw, err := json.Marshal(entries); err == nil {
		if err := c.client.Set(ctx, poolCacheKey, raw, c.ttl).Err(); err != nil {
			log.Printf("pool cache write failed: %v", err)
		}
	}
	return entries, nil
}
