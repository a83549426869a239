// Package hashing implements an offline, deterministic text embedder based on
// the hashing trick: no vocabulary, no corpus preparation, fixed dimension.
package hashing

import (
	"context"
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"

	"newsrag/internal/textutil"
)

// DefaultDimension matches the width of all-MiniLM-L6-v2 vectors.
const DefaultDimension = 384

// Embedder maps term frequencies into signed hash buckets.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder with the given dimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized hashed term-frequency vector of text.
// Text with no content words yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.dimension <= 0 {
		return nil, errors.New("hashing embedder has no dimension")
	}

	tf := make(map[string]int)
	total := 0
	for _, tok := range textutil.Words(text) {
		if textutil.IsStopword(tok) {
			continue
		}
		tf[tok]++
		total++
	}

	acc := make([]float64, e.dimension)
	if total == 0 {
		return make([]float32, e.dimension), nil
	}
	for tok, count := range tf {
		h := xxhash.Sum64String(tok)
		idx := int(h % uint64(e.dimension))
		sign := 1.0
		if h>>63 == 1 {
			sign = -1.0
		}
		acc[idx] += sign * float64(count) / float64(total)
	}

	// L2 normalize
	norm := 0.0
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec, nil
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}
