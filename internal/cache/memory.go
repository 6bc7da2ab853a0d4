package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is an in-process cache with a fixed TTL per entry and a capacity
// bound; the least recently used entry is evicted when full. Hits refresh
// recency but never extend the TTL.
type Memory struct {
	items     *ttlcache.Cache[string, []byte]
	closeOnce sync.Once
}

func NewMemory(ttl time.Duration, capacity uint64) *Memory {
	items := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithCapacity[string, []byte](capacity),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &Memory{items: items}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.items.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *Memory) FlushAll(context.Context) error {
	m.items.DeleteAll()
	return nil
}

func (m *Memory) Len() int {
	return m.items.Len()
}

func (m *Memory) Close() error {
	m.closeOnce.Do(m.items.Stop)
	return nil
}
