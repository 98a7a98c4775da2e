package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ad-match/site/ad"
	"github.com/ad-match/site/config"
	"github.com/ad-match/site/db"
	h "github.com/ad-match/site/handlers"
	"github.com/ad-match/site/recommend"
	"github.com/ad-match/site/vector"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	catalog, err := newCatalog()
	if err != nil {
		log.Fatalf("Failed to initialize catalog: %v", err)
	}
	defer db.Close()

	embedder, err := newEmbedder(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize embedding model: %v", err)
	}

	index, closeIndex, err := newIndex()
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}
	defer closeIndex()

	engine := recommend.NewEngine(catalog, embedder, index, recommend.WithMaxK(config.MaxRecommendations))

	// Build the index up front so the first request does not pay for it
	ctx, cancel := context.WithTimeout(context.Background(), config.InitializeTimeout)
	err = engine.Initialize(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize recommendation engine: %v", err)
	}

	h.Init(engine, config.DefaultRecommendations)

	app := fiber.New(fiber.Config{
		ErrorHandler: h.ErrorHandler,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	})

	app.Use(h.RateLimiter(config.ServerRateLimitMax, config.ServerRateLimitExp))
	app.Use(logger.New())

	h.Routes(app)

	fmt.Printf("Starting server on port %s...\n", config.ServerPort)
	log.Fatal(app.Listen(":" + config.ServerPort))
}

func newCatalog() (*ad.Catalog, error) {
	switch config.CatalogSource {
	case config.CatalogSourceFile:
		return ad.NewFileCatalog(config.CatalogPath), nil
	case config.CatalogSourceDB:
		if err := db.Init(config.DatabaseURL); err != nil {
			return nil, err
		}
		return ad.NewDBCatalog(), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", config.CatalogSource)
	}
}

func newEmbedder(ctx context.Context) (vector.Embedder, error) {
	var (
		base vector.Embedder
		err  error
	)
	switch config.EmbeddingProvider {
	case config.EmbeddingProviderHashing:
		base, err = vector.NewHashingEmbedder(config.EmbeddingDimensions)
	case config.EmbeddingProviderGemini:
		base, err = vector.NewGeminiEmbedder(ctx, vector.GeminiConfig{
			APIKey:     config.GeminiAPIKey,
			Model:      config.GeminiEmbeddingModel,
			Dimensions: config.EmbeddingDimensions,
			BatchSize:  config.GeminiBatchSize,
		})
	default:
		err = fmt.Errorf("unknown embedding provider %q", config.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	if !config.EmbeddingCacheEnabled {
		return base, nil
	}
	cached, err := vector.NewCachedEmbedder(base, config.EmbeddingCacheTTL)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func newIndex() (vector.Index, func(), error) {
	switch config.VectorStore {
	case config.VectorStoreMemory:
		return vector.NewMemoryIndex(), func() {}, nil
	case config.VectorStoreQdrant:
		q, err := vector.NewQdrantIndex(vector.QdrantConfig{
			Host:       config.QdrantHost,
			Port:       config.QdrantPort,
			APIKey:     config.QdrantAPIKey,
			UseTLS:     config.QdrantUseTLS,
			Collection: config.QdrantCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		return q, func() {
			if err := q.Close(); err != nil {
				log.Printf("[qdrant] Close failed: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store %q", config.VectorStore)
	}
}
