package cache

import (
	"context"
	"time"
)

// LayeredCache puts a small MemoryCache in front of Redis. Writes go to
// Redis first; an L2 hit is copied into L1 for at most LocalTTL.
type LayeredCache struct {
	local    *MemoryCache
	remote   *RedisCache
	localTTL time.Duration
}

func NewLayeredCache(remote *RedisCache, opts LayeredOptions) *LayeredCache {
	fill(&opts)
	return &LayeredCache{
		local:    NewMemoryCache(MemoryOptions{MaxEntries: opts.MaxEntries, DefaultTTL: opts.LocalTTL}),
		remote:   remote,
		localTTL: opts.LocalTTL,
	}
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.local.Get(ctx, key, dest) == nil {
		return nil
	}
	var raw []byte
	if err := lc.remote.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, raw, lc.localTTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.remote.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	local := lc.localTTL
	if ttl > 0 && ttl < local {
		local = ttl
	}
	return lc.local.Set(ctx, key, data, local)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.remote.Close()
}

var (
	_ Service = (*MemoryCache)(nil)
	_ Service = (*RedisCache)(nil)
	_ Service = (*LayeredCache)(nil)
)
