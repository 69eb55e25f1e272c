// Package cache is the Redis-backed result cache for classic queries.
// Concurrent misses for the same key are collapsed with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ID2797370/arxiv-search/internal/index"
	"github.com/ID2797370/arxiv-search/pkg/config"
	pkgredis "github.com/ID2797370/arxiv-search/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "classic:"

type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, phrase string, limit, offset int) (*index.SearchResult, bool) {
	key := c.buildKey(phrase, limit, offset)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result index.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "phrase", phrase, "key", key)
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, phrase string, limit, offset int, result *index.SearchResult) {
	key := c.buildKey(phrase, limit, offset)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for a canonical phrase string, or
// runs computeFn exactly once per key across concurrent callers and caches
// its result. The boolean reports whether the result came from cache.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	phrase string,
	limit, offset int,
	computeFn func() (*index.SearchResult, error),
) (*index.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, phrase, limit, offset); ok {
		return result, true, nil
	}
	key := c.buildKey(phrase, limit, offset)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, phrase, limit, offset); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, phrase, limit, offset, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*index.SearchResult), false, nil
}

func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the canonical phrase rendering with the paging window.
// Phrase.String is already canonical, so no further normalization is
// needed.
func (c *ResultCache) buildKey(phrase string, limit, offset int) string {
	raw := fmt.Sprintf("%s:limit=%d:offset=%d", phrase, limit, offset)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
