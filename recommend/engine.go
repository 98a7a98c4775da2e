package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ad-match/site/ad"
	"github.com/ad-match/site/vector"
)

// ErrQueryValidation is returned for a blank query or an out-of-range count
var ErrQueryValidation = errors.New("invalid recommendation query")

// DefaultMaxK bounds the number of recommendations per request
const DefaultMaxK = 50

// State is the lifecycle stage of an Engine
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{Uninitialized, Initializing, Ready} {
		if string(b) == v.String() {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown engine state %q", b)
}

// AdView is the caller-facing part of a recommended ad
type AdView struct {
	Tagline  string `json:"tagline"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
}

// HasImage returns true if the view has an image to render
func (v AdView) HasImage() bool {
	return strings.TrimSpace(v.ImageURL) != ""
}

// Status is a snapshot of the engine for monitoring
type Status struct {
	State         State      `json:"state"`
	AdCount       int        `json:"ad_count"`
	Model         string     `json:"model"`
	Dimension     int        `json:"dimension"`
	InitializedAt *time.Time `json:"initialized_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// Catalog is the ad source the engine indexes
type Catalog interface {
	GetAll() ([]ad.Ad, error)
	GetByID(id any) (ad.Ad, bool, error)
}

// Engine loads, embeds and indexes the catalog once, then serves queries
type Engine struct {
	catalog  Catalog
	embedder vector.Embedder
	index    vector.Index
	maxK     int

	state atomic.Int32
	mu    sync.Mutex

	// guarded by mu
	adCount       int
	initializedAt time.Time
	lastErr       error
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxK sets the largest accepted k
func WithMaxK(maxK int) Option {
	return func(e *Engine) {
		if maxK > 0 {
			e.maxK = maxK
		}
	}
}

// NewEngine wires a catalog, embedding model and index together
func NewEngine(catalog Catalog, embedder vector.Embedder, index vector.Index, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		embedder: embedder,
		index:    index,
		maxK:     DefaultMaxK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state without locking
func (e *Engine) State() State {
	return State(e.state.Load())
}

// MaxK returns the largest accepted k
func (e *Engine) MaxK() int {
	return e.maxK
}

// Embedder returns the model used for ads and queries
func (e *Engine) Embedder() vector.Embedder {
	return e.embedder
}

// Status returns a snapshot of the engine
func (e *Engine) Status() Status {
	s := Status{
		State:     e.State(),
		Model:     e.embedder.ModelID(),
		Dimension: e.embedder.Dimension(),
	}
	if !e.mu.TryLock() {
		return s
	}
	defer e.mu.Unlock()

	s.State = e.State()
	s.AdCount = e.adCount
	if !e.initializedAt.IsZero() {
		t := e.initializedAt
		s.InitializedAt = &t
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}
	return s
}

// Initialize loads the catalog, embeds every ad and rebuilds the index.
// Concurrent callers wait for the run in progress. It is a no-op once Ready.
// On failure the engine returns to Uninitialized and the index is only
// touched if loading and embedding both succeeded.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.State() == Ready {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == Ready {
		return nil
	}

	e.state.Store(int32(Initializing))
	start := time.Now()
	log.Printf("[recommend] Initializing with model %s", e.embedder.ModelID())

	count, err := e.build(ctx)
	if err != nil {
		e.state.Store(int32(Uninitialized))
		e.lastErr = err
		log.Printf("[recommend] Initialization failed: %v", err)
		return err
	}

	e.adCount = count
	e.initializedAt = time.Now()
	e.lastErr = nil
	e.state.Store(int32(Ready))
	log.Printf("[recommend] Ready with %d ads in %s", count, time.Since(start).Round(time.Millisecond))
	return nil
}

func (e *Engine) build(ctx context.Context) (int, error) {
	ads, err := e.catalog.GetAll()
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}

	embedded, err := vector.EmbedAds(ctx, e.embedder, ads)
	if err != nil {
		return 0, fmt.Errorf("embedding ads: %w", err)
	}

	if err := e.index.Create(ctx, e.embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("creating index: %w", err)
	}
	if err := e.index.Upsert(ctx, vector.BuildEntries(embedded)); err != nil {
		return 0, fmt.Errorf("indexing ads: %w", err)
	}
	return len(embedded), nil
}

// GetRecommendations returns up to k ads most similar to query
func (e *Engine) GetRecommendations(ctx context.Context, query string, k int) ([]AdView, error) {
	return e.recommend(ctx, query, k, vector.Filter{})
}

// GetRecommendationsByCategory uses category as the query text and keeps
// only ads whose category matches it, ignoring case
func (e *Engine) GetRecommendationsByCategory(ctx context.Context, category string, k int) ([]AdView, error) {
	return e.recommend(ctx, category, k, vector.Filter{Category: category})
}

func (e *Engine) recommend(ctx context.Context, query string, k int, filter vector.Filter) ([]AdView, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrQueryValidation)
	}
	if k < 1 || k > e.maxK {
		return nil, fmt.Errorf("%w: k must be between 1 and %d, got %d", ErrQueryValidation, e.maxK, k)
	}

	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}

	qv, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.index.Search(ctx, qv, k, filter)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	views := make([]AdView, 0, len(hits))
	for _, h := range hits {
		views = append(views, AdView{
			Tagline:  h.Payload.Tagline,
			Text:     h.Payload.Text,
			ImageURL: h.Payload.ImageURL,
			Link:     h.Payload.Link,
		})
	}
	return views, nil
}

// GetAd looks an ad up in the catalog by id
func (e *Engine) GetAd(ctx context.Context, id any) (ad.Ad, bool, error) {
	return e.catalog.GetByID(id)
}
