package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/initgrep/blogsearch/internal/presenter"
	"github.com/initgrep/blogsearch/internal/searcher/executor"
	"github.com/initgrep/blogsearch/internal/searcher/parser"
	pkgredis "github.com/initgrep/blogsearch/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Backend is the subset of *pkgredis.Client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache stores executed search results keyed by catalog fingerprint,
// normalized query terms and limit. A new catalog build changes the
// fingerprint, so stale entries are never served and simply expire.
type QueryCache struct {
	client Backend
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client Backend, ttl time.Duration) *QueryCache {
	return &QueryCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, fingerprint string, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := BuildKey(fingerprint, plan, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	// The query string is part of the response but not of the key, and ages
	// move on while the entry sits in Redis.
	result.Query = plan.RawQuery
	presenter.RefreshAges(result.Results, c.now())
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, fingerprint string, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := BuildKey(fingerprint, plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for plan or runs computeFn once per
// key, even when many requests for the same query miss concurrently. The
// boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	fingerprint string,
	plan *parser.QueryPlan,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, fingerprint, plan, limit); ok {
		return result, true, nil
	}
	key := BuildKey(fingerprint, plan, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, fingerprint, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := *val.(*executor.SearchResult)
	shared.Query = plan.RawQuery
	return &shared, false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey derives the Redis key for a query against the catalog identified
// by fingerprint: the fingerprint prefix keeps builds apart, the hash keeps
// equivalent queries together.
func BuildKey(fingerprint string, plan *parser.QueryPlan, limit int) string {
	if len(fingerprint) > 16 {
		fingerprint = fingerprint[:16]
	}
	raw := fmt.Sprintf("%s:limit=%d", plan.Normalized(), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, fingerprint, hash[:16])
}
