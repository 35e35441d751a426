package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"news_ingest/internal/domain"
)

const statsKey = "stats:v1"

type StatisticsSource interface {
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

// StatsCache serves statistics from redis and falls back to the store.
type StatsCache struct {
	client goredis.Cmdable
	source StatisticsSource
	ttl    time.Duration
	logger *slog.Logger
}

func NewStatsCache(client goredis.Cmdable, source StatisticsSource, ttl time.Duration, logger *slog.Logger) *StatsCache {
	return &StatsCache{client: client, source: source, ttl: ttl, logger: logger.With("component", "redis_stats_cache")}
}

func (c *StatsCache) Statistics(ctx context.Context) (*domain.Statistics, error) {
	if bs, err := c.client.Get(ctx, statsKey).Bytes(); err == nil {
		var stats domain.Statistics
		if err := json.Unmarshal(bs, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := c.source.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute statistics: %w", err)
	}

	if bs, err := json.Marshal(stats); err == nil {
		if err := c.client.Set(ctx, statsKey, bs, c.ttl).Err(); err != nil {
			c.logger.Warn("cache statistics failed", "error", err)
		}
	}
	return stats, nil
}

// Invalidate drops the cached statistics.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidate statistics: %w", err)
	}
	return nil
}
