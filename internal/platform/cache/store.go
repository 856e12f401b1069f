// Package cache provides TTL key-value stores and caching decorators for
// market data providers.
package cache

import (
	"context"
	"strings"
	"time"
)

// Store is a TTL key-value store.
// Writes are atomic per key.
type Store interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores val for ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key joins parts with ":" after escaping characters that are problematic for Redis keys.
func Key(parts ...string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = safe(p)
	}
	return strings.Join(out, ":")
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
