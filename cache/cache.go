package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a cost-bounded, TTL-aware store keyed by string
type Cache[T any] struct {
	impl *ristretto.Cache[string, T]
	name string
	ttl  time.Duration
	cost func(T) int64
}

// Config controls cache sizing and expiry
type Config struct {
	Name    string
	MaxCost int64
	TTL     time.Duration
}

// Stats is a snapshot of cache metrics
type Stats struct {
	Name         string  `json:"name"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	KeysAdded    uint64  `json:"keys_added"`
	KeysEvicted  uint64  `json:"keys_evicted"`
	SetsRejected uint64  `json:"sets_rejected"`
	CostUsed     uint64  `json:"cost_used"`
	MaxCost      int64   `json:"max_cost"`
	CurrentItems uint64  `json:"current_items"`
	TTLSeconds   float64 `json:"ttl_seconds"`
}

// New creates a cache. cost reports the size of a value in bytes.
func New[T any](cfg Config, cost func(T) int64) (*Cache[T], error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1 << 24
	}
	counters := cfg.MaxCost / 64 * 10
	if counters < 1000 {
		counters = 1000
	}
	impl, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: counters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
		Metrics:     true,
		Cost:        cost,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &Cache[T]{
		impl: impl,
		name: cfg.Name,
		ttl:  cfg.TTL,
		cost: cost,
	}, nil
}

// Get retrieves a value from the cache
func (c *Cache[T]) Get(key string) (T, bool) {
	return c.impl.Get(key)
}

// Set stores a value using the configured TTL. A zero TTL never expires.
func (c *Cache[T]) Set(key string, value T) bool {
	var cost int64
	if c.cost != nil {
		cost = c.cost(value)
	}
	if c.ttl <= 0 {
		return c.impl.Set(key, value, cost)
	}
	return c.impl.SetWithTTL(key, value, cost, c.ttl)
}

// Clear removes all items and resets metrics
func (c *Cache[T]) Clear() {
	c.impl.Clear()
}

// Wait blocks until buffered writes are applied
func (c *Cache[T]) Wait() {
	c.impl.Wait()
}

// Close stops the cache's background goroutines
func (c *Cache[T]) Close() {
	c.impl.Close()
}

// Stats returns current cache metrics
func (c *Cache[T]) Stats() Stats {
	m := c.impl.Metrics
	s := Stats{
		Name:         c.name,
		Hits:         m.Hits(),
		Misses:       m.Misses(),
		HitRate:      m.Ratio() * 100,
		KeysAdded:    m.KeysAdded(),
		KeysEvicted:  m.KeysEvicted(),
		SetsRejected: m.SetsRejected(),
		MaxCost:      c.impl.MaxCost(),
		TTLSeconds:   c.ttl.Seconds(),
	}
	if m.CostAdded() > m.CostEvicted() {
		s.CostUsed = m.CostAdded() - m.CostEvicted()
	}
	if s.KeysAdded > s.KeysEvicted {
		s.CurrentItems = s.KeysAdded - s.KeysEvicted
	}
	return s
}
