// Package cache provides a Redis-backed read cache for leaderboard views.
// The cache is advisory: every entry carries a short TTL and the whole
// keyspace is dropped whenever a scoring submission lands or the totals are
// rebuilt, so stale reads are bounded and the database remains authoritative.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/model"
)

const keyPrefix = "leaderboard:"

// Leaderboard caches ranked score views in Redis.
type Leaderboard struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewLeaderboard constructs a leaderboard cache with the given entry TTL.
func NewLeaderboard(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Leaderboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Leaderboard{rdb: rdb, ttl: ttl, log: log}
}

// Get returns the cached view for limit, if present and decodable.
func (c *Leaderboard) Get(ctx context.Context, limit int) ([]model.ScoreEntry, bool) {
	val, err := c.rdb.Get(ctx, keyPrefix+strconv.Itoa(limit)).Result()
	if err != nil {
		return nil, false
	}
	var entries []model.ScoreEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores the view for limit. Failures are logged and ignored.
func (c *Leaderboard) Set(ctx context.Context, limit int, entries []model.ScoreEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+strconv.Itoa(limit), data, c.ttl).Err(); err != nil {
		c.log.Warn("leaderboard cache set failed", zap.Error(err))
	}
}

// Invalidate drops every cached leaderboard view.
func (c *Leaderboard) Invalidate(ctx context.Context) {
	keys, err := c.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}
