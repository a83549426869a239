package domain

import "context"

// Embedder converts free text into a fixed-size vector.
// Identical input must yield identical output.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists articles with their embeddings and supports similarity search.
type VectorStore interface {
	// Add appends an article and returns its id. Existing records are never overwritten.
	Add(ctx context.Context, article Article) (string, error)
	// Query returns up to k nearest articles, most similar first.
	Query(ctx context.Context, vector []float32, k int) ([]QueryResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Generator is the single capability the service needs from an LLM.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
