package cache

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract the services use. Implementations
// must be safe for concurrent use. Values are strings; callers own
// serialization.
type Cache interface {
	// Get fetches the value for key, returning ErrMiss when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes the given keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// FeedFirstPageKey holds the cached first page of the meme feed. It is
// shared between the feed service and the ingest job so either side can
// invalidate it.
const FeedFirstPageKey = "memes:feed:first"

// ErrMiss signals a cache miss in a typed way, so callers can tell misses
// apart from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
