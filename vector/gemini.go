package vector

import (
	"context"
	"fmt"
	"log"
	"strings"

	genai "google.golang.org/genai"
)

// contentEmbedder is the part of the Gemini models API the embedder uses
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds text with a Gemini embedding model
type GeminiEmbedder struct {
	models    contentEmbedder
	model     string
	dim       int
	batchSize int
}

// GeminiConfig holds the settings for NewGeminiEmbedder
type GeminiConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	BatchSize  int
}

// NewGeminiEmbedder creates a Gemini client and wraps it as an Embedder
func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", ErrModelUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	log.Printf("[embedding] Gemini client ready, model %s, %d dimensions", cfg.Model, cfg.Dimensions)
	return newGeminiEmbedder(client.Models, cfg), nil
}

func newGeminiEmbedder(models contentEmbedder, cfg GeminiConfig) *GeminiEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &GeminiEmbedder{
		models:    models,
		model:     cfg.Model,
		dim:       cfg.Dimensions,
		batchSize: cfg.BatchSize,
	}
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dim
}

func (g *GeminiEmbedder) ModelID() string {
	return fmt.Sprintf("gemini-%s-%d", g.model, g.dim)
}

// Embed generates an embedding for a single text
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends texts to Gemini in chunks of at most batchSize
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyText)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		vectors, err := g.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (g *GeminiEmbedder) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	var contents []*genai.Content
	for _, text := range texts {
		contents = append(contents, genai.Text(strings.TrimSpace(text))...)
	}

	log.Printf("[embedding] Requesting %d Gemini embeddings", len(texts))
	dimensions := int32(g.dim)
	resp, err := g.models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Gemini embedding API error: %v", ErrModelUnavailable, err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: requested %d embeddings, Gemini returned %d", ErrModelUnavailable, len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) != g.dim {
			return nil, fmt.Errorf("%w: embedding %d has wrong shape", ErrModelUnavailable, i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
