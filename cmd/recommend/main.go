package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/ad-match/site/ad"
	"github.com/ad-match/site/config"
	"github.com/ad-match/site/recommend"
	"github.com/ad-match/site/vector"
)

// recommend prints the top matches for a query using the local hashing model
// and an in-memory index.
func main() {
	var (
		catalogPath = flag.String("catalog", config.CatalogPath, "Path to the JSON ad catalog")
		query       = flag.String("q", "", "Interests to match ads against")
		k           = flag.Int("k", config.DefaultRecommendations, "Number of recommendations")
		category    = flag.String("category", "", "Restrict results to a category (query is ignored)")
	)
	flag.Parse()

	embedder, err := vector.NewHashingEmbedder(config.EmbeddingDimensions)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	engine := recommend.NewEngine(ad.NewFileCatalog(*catalogPath), embedder, vector.NewMemoryIndex(),
		recommend.WithMaxK(config.MaxRecommendations))

	ctx := context.Background()
	var views []recommend.AdView
	if *category != "" {
		views, err = engine.GetRecommendationsByCategory(ctx, *category, *k)
	} else {
		views, err = engine.GetRecommendations(ctx, *query, *k)
	}
	if err != nil {
		log.Fatalf("Failed to get recommendations: %v", err)
	}

	if len(views) == 0 {
		fmt.Println("No recommendations found.")
		return
	}
	for i, v := range views {
		fmt.Printf("%d. %s\n   %s\n", i+1, v.Tagline, v.Text)
		if v.Link != "" {
			fmt.Printf("   %s\n", v.Link)
		}
	}
}
