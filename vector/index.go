package vector

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ad-match/site/ad"
)

// Index stores vectors with ad payloads and answers nearest-neighbor queries
type Index interface {
	// Create (re)creates an empty collection for vectors of the given size
	Create(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, entries []Entry) error
	// Search returns at most k hits ordered by descending cosine similarity
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]Hit, error)
	Count(ctx context.Context) (int, error)
}

// Payload is the ad data stored next to each vector
type Payload struct {
	AdID     ad.ID  `json:"ad_id"`
	Tagline  string `json:"tagline"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
	Category string `json:"category,omitempty"`
}

// Entry is one indexed vector. ID is the index's own sequential id, not the ad id.
type Entry struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// Hit is a search result
type Hit struct {
	ID      uint64
	Score   float32
	Payload Payload
}

// Filter restricts a search. The zero value matches everything.
type Filter struct {
	Category string
}

// IsZero returns true if the filter matches every entry
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Category) == ""
}

// Matches reports whether p passes the filter. Categories compare case-insensitively.
func (f Filter) Matches(p Payload) bool {
	if f.IsZero() {
		return true
	}
	return categoryKey(p.Category) == categoryKey(f.Category)
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// PayloadFromAd copies the indexed fields of an ad
func PayloadFromAd(a ad.Ad) Payload {
	return Payload{
		AdID:     a.ID,
		Tagline:  a.Tagline,
		Text:     a.Text,
		ImageURL: a.ImageURL,
		Link:     a.Link,
		Category: a.Category,
	}
}

// BuildEntries assigns sequential ids starting at zero in catalog order
func BuildEntries(embedded []EmbeddedAd) []Entry {
	entries := make([]Entry, len(embedded))
	for i, e := range embedded {
		entries[i] = Entry{
			ID:      uint64(i),
			Vector:  e.Vector,
			Payload: PayloadFromAd(e.Ad),
		}
	}
	return entries
}

// MemoryIndex is an exact brute-force cosine index held in process memory.
// Equal scores keep insertion order.
type MemoryIndex struct {
	mu        sync.RWMutex
	dim       int
	created   bool
	entries   []memoryEntry
	positions map[uint64]int
}

type memoryEntry struct {
	Entry
	norm float64
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{positions: make(map[uint64]int)}
}

// Create drops any previous contents
func (m *MemoryIndex) Create(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", ErrIndex, dimension)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dim = dimension
	m.created = true
	m.entries = nil
	m.positions = make(map[uint64]int)
	log.Printf("[index] Created in-memory collection with %d dimensions", dimension)
	return nil
}

// Upsert inserts entries, replacing any with an existing id
func (m *MemoryIndex) Upsert(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.created {
		return fmt.Errorf("%w: collection not created", ErrIndex)
	}
	for _, e := range entries {
		if len(e.Vector) != m.dim {
			return fmt.Errorf("entry %d: %w", e.ID, &DimensionError{Expected: m.dim, Got: len(e.Vector)})
		}
	}

	for _, e := range entries {
		me := memoryEntry{Entry: e, norm: vectorNorm(e.Vector)}
		if i, ok := m.positions[e.ID]; ok {
			m.entries[i] = me
			continue
		}
		m.positions[e.ID] = len(m.entries)
		m.entries = append(m.entries, me)
	}
	log.Printf("[index] Upserted %d vectors, %d total", len(entries), len(m.entries))
	return nil
}

// Search scores every matching entry against query
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := []Hit{}
	if !m.created || len(m.entries) == 0 || k <= 0 {
		return hits, nil
	}
	if len(query) != m.dim {
		return nil, &DimensionError{Expected: m.dim, Got: len(query)}
	}

	qnorm := vectorNorm(query)
	for _, e := range m.entries {
		if !filter.Matches(e.Payload) {
			continue
		}
		hits = append(hits, Hit{
			ID:      e.ID,
			Score:   cosine(query, qnorm, e.Vector, e.norm),
			Payload: e.Payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float32 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (anorm * bnorm))
}
