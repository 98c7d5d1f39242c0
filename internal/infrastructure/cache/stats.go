package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"microloans-api/internal/domain/stats"
)

const (
	statsKey    = "microloans:stats:summary"
	statsGenKey = "microloans:stats:generation"
)

var errStaleGeneration = errors.New("stats generation moved on")

type cachedSummary struct {
	Generation int64          `json:"generation"`
	Summary    *stats.Summary `json:"summary"`
}

// StatsCache keeps the last computed summary in redis. Writes bump a
// generation counter; a summary is only stored and served for the
// generation it was computed under.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

var _ stats.Cache = (*StatsCache)(nil)

func NewStatsCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *StatsCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsCache{rdb: rdb, ttl: ttl, log: log}
}

func readGeneration(ctx context.Context, cmd redis.StringCmdable) (int64, error) {
	n, err := cmd.Get(ctx, statsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *StatsCache) Get(ctx context.Context) (*stats.Summary, int64, bool) {
	gen, err := readGeneration(ctx, c.rdb)
	if err != nil {
		c.log.Warn("stats cache generation read failed", zap.Error(err))
		return nil, -1, false
	}
	b, err := c.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("stats cache get failed", zap.Error(err))
		}
		return nil, gen, false
	}
	var entry cachedSummary
	if err := json.Unmarshal(b, &entry); err != nil || entry.Summary == nil {
		c.log.Warn("stats cache entry corrupt", zap.Error(err))
		return nil, gen, false
	}
	if entry.Generation != gen {
		return nil, gen, false
	}
	return entry.Summary, gen, true
}

// Set stores s only while gen is still the current generation. The check
// and the write run in one WATCH transaction, so a concurrent Invalidate
// aborts it.
func (c *StatsCache) Set(ctx context.Context, gen int64, s *stats.Summary) {
	if gen < 0 {
		return
	}
	b, err := json.Marshal(cachedSummary{Generation: gen, Summary: s})
	if err != nil {
		return
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, statsKey, b, c.ttl)
			return nil
		})
		return err
	}, statsGenKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("stats summary outdated by a write, not cached", zap.Int64("generation", gen))
	default:
		c.log.Warn("stats cache set failed", zap.Error(err))
	}
}

func (c *StatsCache) Invalidate(ctx context.Context) {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, statsGenKey)
		p.Del(ctx, statsKey)
		return nil
	})
	if err != nil {
		c.log.Warn("stats cache invalidate failed", zap.Error(err))
	}
}
