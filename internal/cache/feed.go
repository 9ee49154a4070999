package cache

import (
	"context"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// IndexPrefix namespaces the cached global feed pages.
const IndexPrefix = "index_page"

// ComputeFunc renders the value to cache on a miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// FeedCache memoises rendered feed pages for a short TTL.
// Backend faults are logged and counted, never returned: the caller always
// gets the live computation instead.
type FeedCache struct {
	store  Store
	prefix string
}

// NewFeedCache returns a cache storing its keys under prefix in store.
// A nil store disables caching.
func NewFeedCache(store Store, prefix string) *FeedCache {
	return &FeedCache{store: store, prefix: prefix}
}

// Key returns the backend key for a page request.
func (f *FeedCache) Key(key string) string {
	return f.prefix + ":" + key
}

// GetOrCompute returns the cached bytes for key, or runs compute and stores
// its result for ttl. Errors from compute are returned and nothing is stored.
func (f *FeedCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if f == nil || f.store == nil || ttl <= 0 {
		return compute(ctx)
	}
	full := f.Key(key)
	ctx, span := observability.StartSpan(ctx, "FeedCache", "GetOrCompute", attribute.String("cache.key", full))
	defer span.End()

	b, ok, err := f.store.Get(ctx, full)
	span.SetAttributes(attribute.Bool("cache.hit", err == nil && ok))
	switch {
	case err != nil:
		observability.FeedCacheRequests.WithLabelValues(observability.CacheError).Inc()
		middleware.Logger.WarnContext(ctx, "feed cache read failed",
			slog.String("key", full),
			slog.String("error", err.Error()),
		)
	case ok:
		observability.FeedCacheRequests.WithLabelValues(observability.CacheHit).Inc()
		return b, nil
	default:
		observability.FeedCacheRequests.WithLabelValues(observability.CacheMiss).Inc()
	}

	b, err = compute(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if setErr := f.store.Set(ctx, full, b, ttl); setErr != nil {
		observability.FeedCacheRequests.WithLabelValues(observability.CacheError).Inc()
		middleware.Logger.WarnContext(ctx, "feed cache write failed",
			slog.String("key", full),
			slog.String("error", setErr.Error()),
		)
	}
	return b, nil
}

// Clear drops every entry under the cache prefix.
func (f *FeedCache) Clear(ctx context.Context) error {
	if f == nil || f.store == nil {
		return nil
	}
	return f.store.DeletePrefix(ctx, f.prefix+":")
}
