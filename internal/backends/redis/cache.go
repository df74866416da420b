package redis

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/types"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache implements ports.Cache with SET EX under "cache:{key}", so expiry is enforced by Redis.
type Cache struct {
	cli redis.UniversalClient
}

func NewCache(cli redis.UniversalClient) *Cache {
	return &Cache{cli: cli}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.cli.Get(ctx, keys.Cache(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.Err(types.ErrDataStoreAccess, err, "cache get %s", key)
	}
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		// go-redis reads a negative ttl as KEEPTTL.
		ttl = 0
	}
	if err := c.cli.Set(ctx, keys.Cache(key), value, ttl).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "cache set %s", key)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.cli.Del(ctx, keys.Cache(key)).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "cache del %s", key)
	}
	return nil
}
