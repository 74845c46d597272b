// Package cache suppresses re-insertion of already-seen matches within a
// TTL window using Redis. Entirely optional: a nil *SeenCache is a no-op
// and the pipeline stays correct without it.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

// SeenCache deduplicates downstream writes against Redis.
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenCache connects to Redis. Returns nil (feature disabled) when addr
// is empty or the server is unreachable.
func NewSeenCache(addr, password string, db int, ttl time.Duration) *SeenCache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis unreachable, seen-match suppression disabled", "addr", addr, "error", err)
		return nil
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	slog.Info("Redis seen-match cache connected", "addr", addr, "ttl", ttl)
	return &SeenCache{client: client, ttl: ttl}
}

// Seen reports whether the match was already recorded within the TTL window
// and records it when it was not. Redis errors degrade to "not seen" so a
// cache outage never drops data.
func (c *SeenCache) Seen(ctx context.Context, m *models.Match) bool {
	if c == nil {
		return false
	}

	key := seenKey(m)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Debug("Cache lookup failed", "key", key, "error", err)
		return false
	}
	if exists > 0 {
		return true
	}

	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		slog.Debug("Cache set failed", "key", key, "error", err)
	}
	return false
}

// Delete removes a match's suppression entry.
func (c *SeenCache) Delete(ctx context.Context, m *models.Match) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, seenKey(m)).Err(); err != nil {
		slog.Debug("Cache delete failed", "error", err)
	}
}

// Close releases the Redis connection.
func (c *SeenCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func seenKey(m *models.Match) string {
	date := ""
	if m.StartTime != nil {
		date = m.StartTime.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("match:%s:%s:%s:%s", m.Source, date, m.HomeTeam, m.AwayTeam)
}
