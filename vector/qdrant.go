package vector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ad-match/site/ad"
	"github.com/qdrant/go-client/qdrant"
)

const categoryKeyField = "category_key"

// qdrantAPI is the subset of *qdrant.Client the index calls
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Close() error
}

// QdrantConfig holds connection settings for NewQdrantIndex
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// QdrantIndex stores ad vectors in a Qdrant collection using cosine distance
type QdrantIndex struct {
	client     qdrantAPI
	collection string

	mu      sync.RWMutex
	dim     int
	created bool
}

// NewQdrantIndex connects to Qdrant over gRPC
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	host := cfg.Host
	if host == "" {
		return nil, fmt.Errorf("%w: missing Qdrant host", ErrIndex)
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")

	log.Printf("[qdrant] Connecting to %s:%d (tls=%t), collection %s", host, cfg.Port, cfg.UseTLS, cfg.Collection)
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}
	return newQdrantIndex(client, cfg.Collection), nil
}

func newQdrantIndex(client qdrantAPI, collection string) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection}
}

// Create recreates the collection and its category payload index
func (q *QdrantIndex) Create(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", ErrIndex, dimension)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection %s: %v", ErrIndex, q.collection, err)
	}
	if exists {
		log.Printf("[qdrant] Dropping existing collection: %s", q.collection)
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("%w: failed to delete collection %s: %v", ErrIndex, q.collection, err)
		}
	}

	log.Printf("[qdrant] Creating collection %s with %d dimensions", q.collection, dimension)
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create collection %s: %v", ErrIndex, q.collection, err)
	}

	wait := true
	_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      categoryKeyField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create %s index: %v", ErrIndex, categoryKeyField, err)
	}

	q.dim = dimension
	q.created = true
	return nil
}

// Upsert writes entries as points with numeric ids
func (q *QdrantIndex) Upsert(ctx context.Context, entries []Entry) error {
	q.mu.RLock()
	dim, created := q.dim, q.created
	q.mu.RUnlock()

	if !created {
		return fmt.Errorf("%w: collection %s not created", ErrIndex, q.collection)
	}
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %d: %w", e.ID, &DimensionError{Expected: dim, Got: len(e.Vector)})
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(e.ID),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: payloadToQdrant(e.Payload),
		})
	}

	wait := true
	log.Printf("[qdrant] Upserting %d vectors", len(points))
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upsert vectors: %v", ErrIndex, err)
	}
	return nil
}

// Search queries the collection, applying the category filter server side
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Hit, error) {
	hits := []Hit{}
	if k <= 0 {
		return hits, nil
	}

	q.mu.RLock()
	dim, created := q.dim, q.created
	q.mu.RUnlock()

	if !created {
		exists, err := q.client.CollectionExists(ctx, q.collection)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to check collection %s: %v", ErrIndex, q.collection, err)
		}
		if !exists {
			return hits, nil
		}
	} else if len(query) != dim {
		return nil, &DimensionError{Expected: dim, Got: len(query)}
	}

	limit := uint64(k)
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(query),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if !filter.IsZero() {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeyword(categoryKeyField, categoryKey(filter.Category)),
			},
		}
	}

	resp, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query %s: %v", ErrIndex, q.collection, err)
	}

	for _, point := range resp {
		payload, err := payloadFromQdrant(point.GetPayload())
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrIndex, point.GetId().GetNum(), err)
		}
		hits = append(hits, Hit{
			ID:      point.GetId().GetNum(),
			Score:   point.GetScore(),
			Payload: payload,
		})
	}
	return hits, nil
}

func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	q.mu.RLock()
	created := q.created
	q.mu.RUnlock()
	if !created {
		return 0, nil
	}

	exact := true
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count points: %v", ErrIndex, err)
	}
	return int(n), nil
}

// Close releases the gRPC connection
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func payloadToQdrant(p Payload) map[string]*qdrant.Value {
	out := map[string]*qdrant.Value{
		"tagline":        qdrant.NewValueString(p.Tagline),
		"text":           qdrant.NewValueString(p.Text),
		"image_url":      qdrant.NewValueString(p.ImageURL),
		"link":           qdrant.NewValueString(p.Link),
		"category":       qdrant.NewValueString(p.Category),
		categoryKeyField: qdrant.NewValueString(categoryKey(p.Category)),
	}
	if n, ok := p.AdID.Int(); ok {
		out["ad_id"] = qdrant.NewValueInt(n)
	} else {
		out["ad_id"] = qdrant.NewValueString(p.AdID.String())
	}
	return out
}

func payloadFromQdrant(m map[string]*qdrant.Value) (Payload, error) {
	var id ad.ID
	switch v := m["ad_id"].GetKind().(type) {
	case *qdrant.Value_IntegerValue:
		id = ad.IntID(v.IntegerValue)
	case *qdrant.Value_StringValue:
		id = ad.StringID(v.StringValue)
	case *qdrant.Value_DoubleValue:
		parsed, ok := ad.ParseID(v.DoubleValue)
		if !ok {
			return Payload{}, fmt.Errorf("non-integral ad_id %v", v.DoubleValue)
		}
		id = parsed
	default:
		return Payload{}, fmt.Errorf("payload has no ad_id")
	}

	return Payload{
		AdID:     id,
		Tagline:  m["tagline"].GetStringValue(),
		Text:     m["text"].GetStringValue(),
		ImageURL: m["image_url"].GetStringValue(),
		Link:     m["link"].GetStringValue(),
		Category: m["category"].GetStringValue(),
	}, nil
}
