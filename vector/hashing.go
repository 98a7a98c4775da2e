package vector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

const bigramWeight = 0.5

// HashingEmbedder is an in-process text model based on signed feature
// hashing of word unigrams and bigrams. It needs no network and is a pure
// function of its input. Matching is lexical, not semantic: it only relates
// texts that share words. Set EMBEDDING_PROVIDER=gemini for a pretrained model.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder producing vectors of length dim
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrModelUnavailable, dim)
	}
	return &HashingEmbedder{dim: dim}, nil
}

func (h *HashingEmbedder) Dimension() int {
	return h.dim
}

func (h *HashingEmbedder) ModelID() string {
	return fmt.Sprintf("hashing-fnv1a-%d", h.dim)
}

// Embed returns the L2-normalized hashed feature vector of text
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make([]float64, h.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(acc, tok, 1)
		if i > 0 {
			h.add(acc, tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	return normalize(acc), nil
}

// EmbedBatch embeds texts in parallel. Output order matches input order.
func (h *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		g.Go(func() error {
			v, err := h.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HashingEmbedder) add(acc []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(v []float64) []float32 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
