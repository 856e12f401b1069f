// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"log/slog"

	"nr_scanner/internal/platform/cache"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/config"
	platformredis "nr_scanner/internal/platform/redis"

	"github.com/redis/go-redis/v9"
)

// NewStore creates the cache store selected by cfg.Cache.Backend.
// If Redis is unavailable, it falls back to the in-memory store.
// A nil store disables caching.
func NewStore(ctx context.Context, cfg config.Config, clk clock.Clock) (cache.Store, *redis.Client) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		rdb, err := platformredis.NewRedisClient(ctx, cfg.Redis)
		if err == nil {
			return cache.NewRedisStore(rdb, "nr"), rdb
		}
		slog.Warn("Redis unavailable. Falling back to in-memory cache.", "error", err)
	}
	return cache.NewMemoryStore(clk), nil
}

// ClearCache removes cached rankings, instrument lists and candles.
func ClearCache(ctx context.Context, store cache.Store) error {
	if store == nil {
		return nil
	}
	for _, ns := range []string{providerNamespace, rankingNamespace} {
		if err := store.DeletePrefix(ctx, ns); err != nil {
			return err
		}
	}
	return nil
}
