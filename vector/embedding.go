package vector

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ad-match/site/ad"
)

// Embedder turns text into fixed-length vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelID() string
}

// EmbeddedAd pairs an ad with the vector computed from its tagline and text
type EmbeddedAd struct {
	Ad     ad.Ad
	Vector []float32
}

// EmbedAds embeds every ad from "tagline text". All records are checked
// before any embedding work starts.
func EmbedAds(ctx context.Context, e Embedder, ads []ad.Ad) ([]EmbeddedAd, error) {
	texts := make([]string, len(ads))
	for i, a := range ads {
		var missing []string
		if strings.TrimSpace(a.Tagline) == "" {
			missing = append(missing, "tagline")
		}
		if strings.TrimSpace(a.Text) == "" {
			missing = append(missing, "text")
		}
		if len(missing) > 0 {
			return nil, &ad.SchemaError{Index: i, AdID: a.ID.String(), Fields: missing, Empty: true}
		}
		texts[i] = a.EmbeddingText()
	}
	if len(ads) == 0 {
		return []EmbeddedAd{}, nil
	}

	log.Printf("[embedding] Embedding %d ads with %s", len(ads), e.ModelID())
	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(ads) {
		return nil, fmt.Errorf("%w: model returned %d vectors for %d ads", ErrModelUnavailable, len(vectors), len(ads))
	}

	out := make([]EmbeddedAd, len(ads))
	for i, a := range ads {
		out[i] = EmbeddedAd{Ad: a, Vector: vectors[i]}
	}
	return out, nil
}
