package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/nurpe/mplads-works/internal/config"
)

// Cache stores serialized responses keyed by query signature. Entries
// expire on their own; Invalidate and FlushAll drop them early.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
	FlushAll(ctx context.Context) error
	Close() error
}

const redisKeyPrefix = "mplads:works:"

// New builds the backend selected in cfg.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendMemory:
		return NewMemory(cfg.TTL, cfg.Capacity), nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedis(client, redisKeyPrefix, cfg.TTL), nil
	case config.CacheBackendNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Invalidate(context.Context, string) error          { return nil }
func (Noop) FlushAll(context.Context) error                    { return nil }
func (Noop) Close() error                                      { return nil }
