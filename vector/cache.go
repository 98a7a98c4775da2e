package vector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ad-match/site/cache"
)

// CachedEmbedder memoizes single-text embeddings of another Embedder.
// Only model output is cached, never recommendation results.
type CachedEmbedder struct {
	Embedder
	cache *cache.Cache[[]float32]
}

// NewCachedEmbedder wraps e with a query embedding cache
func NewCachedEmbedder(e Embedder, ttl time.Duration) (*CachedEmbedder, error) {
	c, err := cache.New[[]float32](cache.Config{
		Name:    "Query Embedding Cache",
		MaxCost: 1 << 24,
		TTL:     ttl,
	}, func(v []float32) int64 {
		return int64(len(v) * 4)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize query embedding cache: %w", err)
	}
	return &CachedEmbedder{Embedder: e, cache: c}, nil
}

// Embed returns the cached vector for text, computing it on a miss
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if !c.cache.Set(key, v) {
		log.Printf("[embedding] Query embedding cache rejected entry for %q", text)
	}
	return v, nil
}

// Stats returns the embedding cache metrics
func (c *CachedEmbedder) Stats() cache.Stats {
	return c.cache.Stats()
}

// Clear empties the embedding cache
func (c *CachedEmbedder) Clear() {
	c.cache.Clear()
	log.Printf("[embedding] Query embedding cache cleared")
}

// Wait blocks until pending cache writes are visible
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}

func (c *CachedEmbedder) key(text string) string {
	return c.ModelID() + "|" + strings.TrimSpace(text)
}
