package cache

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

type Flusher interface {
	FlushAll(ctx context.Context) error
}

// Monitor flushes the cache when heap usage crosses a share of the
// available memory.
type Monitor struct {
	cache    Flusher
	log      zerolog.Logger
	interval time.Duration
	ratio    float64

	readStats func(*runtime.MemStats)
	limit     func() int64
	freeOS    func()
}

func NewMonitor(cache Flusher, log zerolog.Logger, interval time.Duration, ratio float64) *Monitor {
	return &Monitor{
		cache:     cache,
		log:       log.With().Str("component", "memory-monitor").Logger(),
		interval:  interval,
		ratio:     ratio,
		readStats: runtime.ReadMemStats,
		limit:     func() int64 { return debug.SetMemoryLimit(-1) },
		freeOS:    debug.FreeOSMemory,
	}
}

// Run checks memory every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check samples memory once and reports whether the cache was flushed.
func (m *Monitor) Check(ctx context.Context) bool {
	var stats runtime.MemStats
	m.readStats(&stats)

	capacity := float64(stats.HeapSys)
	if limit := m.limit(); limit > 0 && limit != math.MaxInt64 {
		capacity = float64(limit)
	}
	if capacity == 0 {
		return false
	}

	usage := float64(stats.HeapInuse) / capacity
	m.log.Debug().
		Uint64("heap_inuse_mb", stats.HeapInuse>>20).
		Float64("capacity_mb", capacity/(1<<20)).
		Float64("usage", usage).
		Msg("memory sample")

	if usage < m.ratio {
		return false
	}

	m.log.Warn().Float64("usage", usage).Msg("high memory usage, flushing response cache")
	if err := m.cache.FlushAll(ctx); err != nil {
		m.log.Error().Err(err).Msg("cache flush failed")
		return false
	}
	m.freeOS()
	return true
}
