package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ad-match/site/ad"
	"github.com/ad-match/site/recommend"
	"github.com/ad-match/site/ui"
	"github.com/ad-match/site/vector"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testCatalog = `[
	{"ad_id": 1, "image_url": "", "link": "http://x/1", "tagline": "Gaming Laptop Pro",
	 "text": "High performance laptop for gamers", "category": "electronics"},
	{"ad_id": 2, "image_url": "http://img/2.png", "link": "http://x/2", "tagline": "Organic Coffee Club",
	 "text": "Fresh roasted coffee beans delivered weekly", "category": "Food"},
	{"ad_id": "promo-3", "image_url": "", "link": "http://x/3", "tagline": "Noise Cancelling Headphones",
	 "text": "Wireless headphones for travel", "category": "Electronics"}
]`

func setupApp(t *testing.T, catalogJSON string, cached bool) *fiber.App {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ads.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	var embedder vector.Embedder
	hashing, err := vector.NewHashingEmbedder(384)
	require.NoError(t, err)
	embedder = hashing
	if cached {
		embedder, err = vector.NewCachedEmbedder(hashing, time.Hour)
		require.NoError(t, err)
	}

	Init(recommend.NewEngine(ad.NewFileCatalog(path), embedder, vector.NewMemoryIndex()), 5)
	t.Cleanup(func() { engine = nil })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Routes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandleHealth(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Contains(t, body, `"state":"uninitialized"`)

	require.NoError(t, engine.Initialize(context.Background()))
	code, body = doRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestHandleRecommendations(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/recommendations?q=gaming+laptop&k=1")
	require.Equal(t, fiber.StatusOK, code, body)

	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "gaming laptop", resp.Query)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "Gaming Laptop Pro", resp.Recommendations[0].Tagline)
	assert.NotContains(t, body, "ad_id")
}

func TestHandleRecommendations_DefaultCount(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/recommendations?q=coffee")
	require.Equal(t, fiber.StatusOK, code)

	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, 3, resp.Count)
}

func TestHandleRecommendations_BadRequests(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing query", target: "/api/recommendations?k=3"},
		{name: "blank query", target: "/api/recommendations?q=%20%20&k=3"},
		{name: "non-numeric k", target: "/api/recommendations?q=coffee&k=abc"},
		{name: "zero k", target: "/api/recommendations?q=coffee&k=0"},
		{name: "k above max", target: "/api/recommendations?q=coffee&k=51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, app, http.MethodGet, tt.target)
			assert.Equal(t, fiber.StatusBadRequest, code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Contains(t, resp["error"], "invalid recommendation query")
		})
	}
}

func TestHandleRecommendations_CatalogFailure(t *testing.T) {
	app := setupApp(t, `{"not": "a list"}`, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/recommendations?q=coffee&k=1")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Contains(t, body, "invalid catalog data format")
	assert.Equal(t, recommend.Uninitialized, engine.State())
}

func TestHandleCategoryRecommendations(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/recommendations/category/ELECTRONICS?k=5")
	require.Equal(t, fiber.StatusOK, code, body)

	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "ELECTRONICS", resp.Category)
	assert.Equal(t, 2, resp.Count)
	for _, v := range resp.Recommendations {
		assert.NotEqual(t, "Organic Coffee Club", v.Tagline)
	}
}

func TestHandleCategoryRecommendations_EscapedCategory(t *testing.T) {
	app := setupApp(t, `[
		{"ad_id": 1, "image_url": "", "link": "http://x/1", "tagline": "Sofa Deals",
		 "text": "Comfortable sofas for the living room", "category": "Home Goods"},
		{"ad_id": 2, "image_url": "", "link": "http://x/2", "tagline": "Trail Shoes",
		 "text": "Running shoes for mountain trails", "category": "Sports"}
	]`, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/recommendations/category/home%20goods?k=5")
	require.Equal(t, fiber.StatusOK, code, body)

	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "home goods", resp.Query)
	assert.Equal(t, "home goods", resp.Category)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Sofa Deals", resp.Recommendations[0].Tagline)
}

func TestHandleCategoryRecommendations_BadEscape(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations/category/x?k=5", nil)
	req.URL.Opaque = "/api/recommendations/category/%zz"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleAd(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/ads/2")
	require.Equal(t, fiber.StatusOK, code)
	var a ad.Ad
	require.NoError(t, json.Unmarshal([]byte(body), &a))
	assert.Equal(t, ad.IntID(2), a.ID)
	assert.Equal(t, "Organic Coffee Club", a.Tagline)

	code, body = doRequest(t, app, http.MethodGet, "/api/ads/promo-3")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"ad_id":"promo-3"`)

	code, body = doRequest(t, app, http.MethodGet, "/api/ads/spring%20sale")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, `"error":"ad not found: spring sale"`)

	code, body = doRequest(t, app, http.MethodGet, "/api/ads/999")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, `"error":"ad not found: 999"`)
}

func TestHandleStatus(t *testing.T) {
	app := setupApp(t, testCatalog, false)
	require.NoError(t, engine.Initialize(context.Background()))

	code, body := doRequest(t, app, http.MethodGet, "/api/status")
	require.Equal(t, fiber.StatusOK, code)

	var status recommend.Status
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, 3, status.AdCount)
	assert.Equal(t, "hashing-fnv1a-384", status.Model)
	assert.Contains(t, body, `"state":"ready"`)
}

func TestHandleEmbeddingCache(t *testing.T) {
	app := setupApp(t, testCatalog, true)

	code, _ := doRequest(t, app, http.MethodGet, "/api/recommendations?q=coffee&k=1")
	require.Equal(t, fiber.StatusOK, code)

	code, body := doRequest(t, app, http.MethodGet, "/api/admin/embedding-cache")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"name":"Query Embedding Cache"`)

	code, body = doRequest(t, app, http.MethodPost, "/api/admin/embedding-cache/clear")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "cleared")
}

func TestHandleEmbeddingCache_Disabled(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/api/admin/embedding-cache")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, "embedding cache is disabled")
}

func TestHandleHome(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `hx-get="/recommendations"`)
	assert.Contains(t, body, `<option value="5" selected>5</option>`)
}

func TestHandleRecommendationsFragment(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	tests := []struct {
		name     string
		target   string
		contains string
	}{
		{name: "blank query", target: "/recommendations?q=&k=3", contains: ui.EnterInterestsMessage},
		{name: "results", target: "/recommendations?q=coffee+beans&k=1", contains: "Organic Coffee Club"},
		{name: "bad k", target: "/recommendations?q=coffee&k=abc", contains: "k must be an integer"},
		{name: "k out of range", target: "/recommendations?q=coffee&k=99", contains: "k must be between 1 and 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, app, http.MethodGet, tt.target)
			assert.Equal(t, fiber.StatusOK, code)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestHandleRecommendationsFragment_EmptyCatalog(t *testing.T) {
	app := setupApp(t, `[]`, false)

	code, body := doRequest(t, app, http.MethodGet, "/recommendations?q=anything&k=3")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, ui.NoRecommendationsMessage)
}

func TestHandleRecommendationsFragment_SystemError(t *testing.T) {
	app := setupApp(t, `[{"ad_id": 1}]`, false)

	code, body := doRequest(t, app, http.MethodGet, "/recommendations?q=coffee&k=1")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "Error getting recommendations")
}

func TestErrorHandler_HTMLPage(t *testing.T) {
	app := setupApp(t, testCatalog, false)

	code, body := doRequest(t, app, http.MethodGet, "/no-such-page")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Contains(t, body, "Error 404")
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusCode(recommend.ErrQueryValidation))
	assert.Equal(t, fiber.StatusNotFound, StatusCode(fiber.NewError(fiber.StatusNotFound, "x")))
	assert.Equal(t, fiber.StatusInternalServerError, StatusCode(vector.ErrIndex))
	assert.Equal(t, fiber.StatusInternalServerError, StatusCode(ad.ErrDataSourceNotFound))
}

func TestParseCount(t *testing.T) {
	app := fiber.New()
	defaultCount = 5

	tests := []struct {
		name     string
		query    string
		expected int
		wantErr  bool
	}{
		{name: "missing", query: "", expected: 5},
		{name: "valid", query: "k=7", expected: 7},
		{name: "padded", query: "k=%203", expected: 3},
		{name: "negative passes through", query: "k=-2", expected: -2},
		{name: "not a number", query: "k=seven", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := app.AcquireCtx(&fasthttp.RequestCtx{})
			defer app.ReleaseCtx(ctx)
			ctx.Request().URI().SetQueryString(tt.query)

			k, err := ParseCount(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, recommend.ErrQueryValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, k)
		})
	}
}
