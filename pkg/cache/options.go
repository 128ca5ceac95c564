package cache

import (
	"time"

	"github.com/creasty/defaults"
)

type RedisOptions struct {
	Host         string        `default:"localhost"`
	Port         int           `default:"6379"`
	Password     string
	DB           int
	PoolSize     int           `default:"10"`
	MinIdleConns int           `default:"2"`
	PoolTimeout  time.Duration `default:"4s"`
	DialTimeout  time.Duration `default:"5s"`
	// Namespace prefixes every key so several deployments can share a db.
	Namespace string `default:"osloscan"`
}

type MemoryOptions struct {
	MaxEntries int           `default:"1000"`
	DefaultTTL time.Duration `default:"15m"`
	Sweep      time.Duration `default:"1m"`
}

// LayeredOptions sizes the in-process layer in front of Redis.
type LayeredOptions struct {
	MaxEntries int           `default:"1000"`
	LocalTTL   time.Duration `default:"1m"`
}

// fill sets zero fields from their default tags.
func fill(opts interface{}) {
	_ = defaults.Set(opts)
}
