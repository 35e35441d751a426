package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const hashKeyPrefix = "dedup:hash:"

// HashIndex shares content_hash -> id across ingester processes. Redis
// errors degrade to cache misses; the store still rejects duplicates.
type HashIndex struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewHashIndex(client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *HashIndex {
	return &HashIndex{client: client, ttl: ttl, logger: logger.With("component", "redis_hash_index")}
}

func (h *HashIndex) Lookup(ctx context.Context, hash string) (int64, bool) {
	id, err := h.client.Get(ctx, hashKeyPrefix+hash).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, false
	}
	if err != nil {
		h.logger.Warn("hash lookup failed", "error", err)
		return 0, false
	}
	return id, true
}

func (h *HashIndex) Remember(ctx context.Context, hash string, id int64) {
	if err := h.client.Set(ctx, hashKeyPrefix+hash, id, h.ttl).Err(); err != nil {
		h.logger.Warn("hash remember failed", "error", err)
	}
}
