package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/ad-match/site/ad"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant records requests and returns canned points
type fakeQdrant struct {
	exists      bool
	deleted     []string
	created     *qdrant.CreateCollection
	fieldIndex  *qdrant.CreateFieldIndexCollection
	upserts     []*qdrant.UpsertPoints
	queries     []*qdrant.QueryPoints
	queryResult []*qdrant.ScoredPoint
	queryErr    error
	count       uint64
	closed      bool
}

func (f *fakeQdrant) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, nil
}

func (f *fakeQdrant) DeleteCollection(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	f.exists = false
	return nil
}

func (f *fakeQdrant) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	f.exists = true
	return nil
}

func (f *fakeQdrant) CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error) {
	f.fieldIndex = req
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.queryResult, f.queryErr
}

func (f *fakeQdrant) Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error) {
	return f.count, nil
}

func (f *fakeQdrant) Close() error {
	f.closed = true
	return nil
}

func TestNewQdrantIndex_MissingHost(t *testing.T) {
	_, err := NewQdrantIndex(QdrantConfig{Collection: "ads"})
	assert.ErrorIs(t, err, ErrIndex)
}

func TestQdrantIndex_CreateRecreatesCollection(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	idx := newQdrantIndex(fake, "ads_collection")

	require.NoError(t, idx.Create(context.Background(), 384))

	assert.Equal(t, []string{"ads_collection"}, fake.deleted)
	require.NotNil(t, fake.created)
	params := fake.created.GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(384), params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())
	require.NotNil(t, fake.fieldIndex)
	assert.Equal(t, "category_key", fake.fieldIndex.GetFieldName())
	assert.Equal(t, qdrant.FieldType_FieldTypeKeyword, fake.fieldIndex.GetFieldType())
}

func TestQdrantIndex_SearchBeforeCreate(t *testing.T) {
	fake := &fakeQdrant{}
	idx := newQdrantIndex(fake, "ads_collection")

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3, Filter{})
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.Empty(t, fake.queries)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQdrantIndex_UpsertBeforeCreate(t *testing.T) {
	idx := newQdrantIndex(&fakeQdrant{}, "ads_collection")
	err := idx.Upsert(context.Background(), []Entry{{ID: 0, Vector: []float32{1}}})
	assert.ErrorIs(t, err, ErrIndex)
}

func TestQdrantIndex_Upsert(t *testing.T) {
	fake := &fakeQdrant{}
	idx := newQdrantIndex(fake, "ads_collection")
	ctx := context.Background()
	require.NoError(t, idx.Create(ctx, 2))

	err := idx.Upsert(ctx, []Entry{
		{ID: 0, Vector: []float32{1, 0}, Payload: Payload{AdID: ad.IntID(7), Tagline: "t", Text: "x", Category: "Electronics"}},
		{ID: 1, Vector: []float32{0, 1}, Payload: Payload{AdID: ad.StringID("promo"), Tagline: "u", Text: "y"}},
	})
	require.NoError(t, err)

	require.Len(t, fake.upserts, 1)
	points := fake.upserts[0].GetPoints()
	require.Len(t, points, 2)
	assert.Equal(t, uint64(0), points[0].GetId().GetNum())
	assert.Equal(t, int64(7), points[0].GetPayload()["ad_id"].GetIntegerValue())
	assert.Equal(t, "electronics", points[0].GetPayload()["category_key"].GetStringValue())
	assert.Equal(t, "promo", points[1].GetPayload()["ad_id"].GetStringValue())

	err = idx.Upsert(ctx, []Entry{{ID: 2, Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, ErrIndex)
}

func TestQdrantIndex_SearchWithFilter(t *testing.T) {
	fake := &fakeQdrant{
		queryResult: []*qdrant.ScoredPoint{
			{
				Id:    qdrant.NewIDNum(3),
				Score: 0.92,
				Payload: payloadToQdrant(Payload{
					AdID: ad.IntID(42), Tagline: "Gaming Laptop Pro", Text: "fast", Link: "http://x", Category: "electronics",
				}),
			},
		},
	}
	idx := newQdrantIndex(fake, "ads_collection")
	ctx := context.Background()
	require.NoError(t, idx.Create(ctx, 2))

	hits, err := idx.Search(ctx, []float32{1, 0}, 5, Filter{Category: " Electronics"})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, uint64(3), hits[0].ID)
	assert.Equal(t, float32(0.92), hits[0].Score)
	assert.Equal(t, ad.IntID(42), hits[0].Payload.AdID)
	assert.Equal(t, "Gaming Laptop Pro", hits[0].Payload.Tagline)

	require.Len(t, fake.queries, 1)
	req := fake.queries[0]
	assert.Equal(t, uint64(5), req.GetLimit())
	must := req.GetFilter().GetMust()
	require.Len(t, must, 1)
	match := must[0].GetField()
	assert.Equal(t, "category_key", match.GetKey())
	assert.Equal(t, "electronics", match.GetMatch().GetKeyword())
}

func TestQdrantIndex_SearchErrors(t *testing.T) {
	fake := &fakeQdrant{queryErr: errors.New("unavailable")}
	idx := newQdrantIndex(fake, "ads_collection")
	ctx := context.Background()
	require.NoError(t, idx.Create(ctx, 2))

	_, err := idx.Search(ctx, []float32{1, 0}, 1, Filter{})
	assert.ErrorIs(t, err, ErrIndex)

	_, err = idx.Search(ctx, []float32{1}, 1, Filter{})
	assert.ErrorIs(t, err, ErrIndex)
}

func TestQdrantIndex_CountAndClose(t *testing.T) {
	fake := &fakeQdrant{count: 12}
	idx := newQdrantIndex(fake, "ads_collection")
	require.NoError(t, idx.Create(context.Background(), 2))

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	require.NoError(t, idx.Close())
	assert.True(t, fake.closed)
}

func TestPayloadRoundTrip(t *testing.T) {
	tests := []Payload{
		{AdID: ad.IntID(1), Tagline: "a", Text: "b", ImageURL: "i", Link: "l", Category: "Sports"},
		{AdID: ad.StringID("promo-9"), Tagline: "c", Text: "d"},
	}
	for _, p := range tests {
		got, err := payloadFromQdrant(payloadToQdrant(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := payloadFromQdrant(map[string]*qdrant.Value{"tagline": qdrant.NewValueString("x")})
	assert.Error(t, err)
}
