// Package cache shields the upstream platform API from repeated list calls. Values are stored encoded in a
// ports.Cache for a short TTL; callers that need fresh data invalidate the key first.
package cache

import (
	"context"
	"dbuilder/internal/metrics"
	"dbuilder/internal/ports"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cached returns the value stored under key if present and unexpired. Otherwise it calls producer, stores the
// result for ttl and returns it. Producer errors are returned as is and nothing is stored.
// An entry that cannot be decoded is treated as a miss.
func Cached[T any](ctx context.Context, c ports.Cache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		var v T
		if err := Decode(raw, &v); err == nil {
			metrics.CacheRequests.WithLabelValues(metrics.CacheHit).Inc()
			return v, nil
		} else {
			log.WithField("key", key).WithError(err).Warn("cache: dropping undecodable entry")
		}
	}
	metrics.CacheRequests.WithLabelValues(metrics.CacheMiss).Inc()

	v, err := producer(ctx)
	if err != nil {
		return zero, err
	}
	b, err := Encode(v)
	if err != nil {
		return zero, err
	}
	if err := c.Set(ctx, key, b, ttl); err != nil {
		return zero, err
	}
	return v, nil
}

// Invalidate force-expires key.
func Invalidate(ctx context.Context, c ports.Cache, key string) error {
	return c.Delete(ctx, key)
}
