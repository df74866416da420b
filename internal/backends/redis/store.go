package redis

import (
	"context"
	"dbuilder/internal/types"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// addUnlessMember runs SISMEMBER and SADD as one server-side step: KEYS[1] is the target set, KEYS[2] the set
// that must not hold ARGV[1].
var addUnlessMember = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
	return 0
end
return redis.call('SADD', KEYS[1], ARGV[1])
`)

// Store implements ports.Store on plain Redis commands. SMOVE, SADD and the addUnlessMember script are atomic on
// the server, which is all the name pool needs to stay consistent across concurrent requests.
type Store struct {
	cli redis.UniversalClient
}

func NewStore(cli redis.UniversalClient) *Store {
	return &Store{cli: cli}
}

func (s *Store) IsMember(ctx context.Context, set, item string) (bool, error) {
	ok, err := s.cli.SIsMember(ctx, set, item).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "sismember %s", set)
	}
	return ok, nil
}

func (s *Store) Add(ctx context.Context, set, item string) (bool, error) {
	n, err := s.cli.SAdd(ctx, set, item).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "sadd %s", set)
	}
	return n > 0, nil
}

func (s *Store) AddUnlessMember(ctx context.Context, set, exclude, item string) (bool, error) {
	n, err := addUnlessMember.Run(ctx, s.cli, []string{set, exclude}, item).Int64()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "sadd %s unless in %s", set, exclude)
	}
	return n > 0, nil
}

func (s *Store) Remove(ctx context.Context, set, item string) (bool, error) {
	n, err := s.cli.SRem(ctx, set, item).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "srem %s", set)
	}
	return n > 0, nil
}

func (s *Store) Move(ctx context.Context, src, dst, item string) (bool, error) {
	moved, err := s.cli.SMove(ctx, src, dst, item).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "smove %s -> %s", src, dst)
	}
	return moved, nil
}

func (s *Store) RandomMember(ctx context.Context, set string) (string, bool, error) {
	item, err := s.cli.SRandMember(ctx, set).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, types.Err(types.ErrDataStoreAccess, err, "srandmember %s", set)
	}
	return item, true, nil
}

func (s *Store) Scan(ctx context.Context, set string, cursor uint64, count int64) ([]string, uint64, error) {
	items, next, err := s.cli.SScan(ctx, set, cursor, "", count).Result()
	if err != nil {
		return nil, 0, types.Err(types.ErrDataStoreAccess, err, "sscan %s", set)
	}
	return items, next, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.cli.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, types.Err(types.ErrDataStoreAccess, err, "get %s", key)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.cli.Set(ctx, key, value, ttl).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "set %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.cli.Del(ctx, key).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "del %s", key)
	}
	return n == 1, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.cli.Exists(ctx, key).Result()
	if err != nil {
		return false, types.Err(types.ErrDataStoreAccess, err, "exists %s", key)
	}
	return n > 0, nil
}

func (s *Store) HashSet(ctx context.Context, key string, fields map[string]string) (int64, error) {
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	n, err := s.cli.HSet(ctx, key, values).Result()
	if err != nil {
		return 0, types.Err(types.ErrDataStoreAccess, err, "hset %s", key)
	}
	return n, nil
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.cli.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, types.Err(types.ErrDataStoreAccess, err, "hgetall %s", key)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
