package ports

import (
	"context"
	"time"
)

// Cache holds short-lived encoded upstream responses. Get returns ok == false for missing or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
