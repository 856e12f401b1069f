package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// GetOrLoad returns the cached value for key or calls load and stores its result.
// Concurrent misses on the same key share one load; other keys are never blocked.
// Store failures are logged and treated as misses.
func GetOrLoad[T any](ctx context.Context, store Store, group *singleflight.Group, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if b, ok, err := store.Get(ctx, key); err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 破損したエントリはロード結果で上書きされる
	}

	v, err, _ := group.Do(key, func() (any, error) {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(out); err == nil {
			if err := store.Set(ctx, key, b, ttl); err != nil {
				slog.Warn("cache set failed", "key", key, "error", err)
			}
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
