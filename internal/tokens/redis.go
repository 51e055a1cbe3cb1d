package tokens

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "seer:tokens"

// RedisStore keeps tokens in a Redis hash so several processes can share one
// session.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore wraps an existing client. An empty key uses "seer:tokens".
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// DialRedis connects to addr and returns a store using key.
func DialRedis(ctx context.Context, addr, key string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(rdb, key), nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func (r *RedisStore) Tokens(ctx context.Context) (Pair, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Pair{}, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	return Pair{Access: vals["access"], Refresh: vals["refresh"]}, nil
}

func (r *RedisStore) SetTokens(ctx context.Context, p Pair) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, "access", p.Access, "refresh", p.Refresh)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
