package handlers

import (
	"github.com/ad-match/site/cache"
	"github.com/ad-match/site/recommend"
	"github.com/gofiber/fiber/v2"
)

// embeddingCache is implemented by embedders that memoize query vectors
type embeddingCache interface {
	Stats() cache.Stats
	Clear()
}

var (
	engine       *recommend.Engine
	defaultCount = 5
)

// Init sets the engine served by the handlers and the default result count
func Init(e *recommend.Engine, defaultK int) {
	engine = e
	if defaultK > 0 {
		defaultCount = defaultK
	}
}

// Routes registers every page and API route on app
func Routes(app *fiber.App) {
	app.Get("/", HandleHome)
	app.Get("/recommendations", HandleRecommendationsFragment)
	app.Get("/health", HandleHealth)

	api := app.Group("/api")
	api.Get("/recommendations", HandleRecommendations)
	api.Get("/recommendations/category/:category", HandleCategoryRecommendations)
	api.Get("/ads/:id", HandleAd)
	api.Get("/status", HandleStatus)

	admin := api.Group("/admin")
	admin.Get("/embedding-cache", HandleEmbeddingCacheStats)
	admin.Post("/embedding-cache/clear", HandleClearEmbeddingCache)
}

func getEmbeddingCache() (embeddingCache, bool) {
	if engine == nil {
		return nil, false
	}
	c, ok := engine.Embedder().(embeddingCache)
	return c, ok
}
