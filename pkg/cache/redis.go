package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis under opts.Namespace.
type RedisCache struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisCache dials Redis and fails if the server does not answer PING
// before ctx expires.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	fill(&opts)
	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		PoolTimeout:  opts.PoolTimeout,
		DialTimeout:  opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", rdb.Options().Addr, err)
	}
	return &RedisCache{rdb: rdb, namespace: opts.Namespace}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, Key(c.namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return decode(data, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(c.namespace, key), data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = Key(c.namespace, k)
	}
	return c.rdb.Unlink(ctx, full...).Err()
}

func (c *RedisCache) Close() error { return c.rdb.Close() }
