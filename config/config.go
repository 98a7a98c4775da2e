package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server settings
var (
	ServerPort         = getEnv("PORT", "8000")
	ServerRateLimitMax = getEnvInt("RATE_LIMIT_MAX", 60)
	ServerRateLimitExp = getEnvDuration("RATE_LIMIT_EXPIRATION", time.Minute)
	ServerReadTimeout  = getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
)

// Catalog settings
const (
	CatalogSourceFile = "file"
	CatalogSourceDB   = "db"
)

var (
	// CatalogSource selects where ads are read from: "file" or "db".
	CatalogSource = strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceFile))
	CatalogPath   = getEnv("CATALOG_PATH", "data/ads.json")
	DatabaseURL   = getEnv("DATABASE_URL", "data/ads.db")
)

// Embedding settings
const (
	EmbeddingProviderHashing = "hashing"
	EmbeddingProviderGemini  = "gemini"
)

var (
	EmbeddingProvider   = strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderHashing))
	EmbeddingDimensions = getEnvInt("EMBEDDING_DIMENSIONS", 384)

	// EmbeddingCacheEnabled memoizes query embeddings. Only worth it for remote models.
	EmbeddingCacheEnabled = getEnvBool("EMBEDDING_CACHE_ENABLED", true)
	EmbeddingCacheTTL     = getEnvDuration("EMBEDDING_CACHE_TTL", time.Hour)

	GeminiAPIKey         = os.Getenv("GEMINI_API_KEY")
	GeminiEmbeddingModel = getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004")
	GeminiBatchSize      = getEnvInt("GEMINI_BATCH_SIZE", 100)
)

// Vector store settings
const (
	VectorStoreMemory = "memory"
	VectorStoreQdrant = "qdrant"
)

var (
	VectorStore      = strings.ToLower(getEnv("VECTOR_STORE", VectorStoreMemory))
	QdrantHost       = os.Getenv("QDRANT_HOST")
	QdrantPort       = getEnvInt("QDRANT_PORT", 6334)
	QdrantAPIKey     = os.Getenv("QDRANT_API_KEY")
	QdrantUseTLS     = getEnvBool("QDRANT_USE_TLS", false)
	QdrantCollection = getEnv("QDRANT_COLLECTION", "ads_collection")
)

// Recommendation settings
var (
	MaxRecommendations     = getEnvInt("MAX_RECOMMENDATIONS", 50)
	DefaultRecommendations = getEnvInt("DEFAULT_RECOMMENDATIONS", 5)
	InitializeTimeout      = getEnvDuration("INITIALIZE_TIMEOUT", 5*time.Minute)
)

// Frontend assets
const (
	TailwindCSSURL = "https://cdn.jsdelivr.net/npm/tailwindcss@2.2.19/dist/tailwind.min.css"
	HTMXURL        = "https://unpkg.com/htmx.org@1.9.12"
)

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] Invalid integer for %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("[config] Invalid boolean for %s=%q, using default %t", key, value, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[config] Invalid duration for %s=%q, using default %s", key, value, fallback)
		return fallback
	}
	return d
}
