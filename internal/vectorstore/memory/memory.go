package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"newsrag/internal/domain"
	"newsrag/internal/vectorstore"
)

// ErrEmptyEmbedding is returned when an article without a vector is added.
var ErrEmptyEmbedding = errors.New("article has no embedding")

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Records keep insertion order, which breaks score ties.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	articles  []domain.Article
}

func NewStorage() *Storage { return &Storage{} }

// Check reports whether vector could be added without a dimension mismatch.
func (s *Storage) Check(vector []float32) error {
	if len(vector) == 0 {
		return ErrEmptyEmbedding
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension != 0 && len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, store has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	return nil
}

func (s *Storage) Add(ctx context.Context, article domain.Article) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.Check(article.Embedding); err != nil {
		return "", err
	}
	article = vectorstore.Prepare(article)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(article)
	return article.ID, nil
}

// Load appends already-prepared articles, e.g. when restoring from disk.
func (s *Storage) Load(articles []domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		if len(a.Embedding) == 0 {
			return fmt.Errorf("article %s: %w", a.ID, ErrEmptyEmbedding)
		}
		if s.dimension != 0 && len(a.Embedding) != s.dimension {
			return fmt.Errorf("article %s: %w", a.ID, domain.ErrDimensionMismatch)
		}
		s.insert(a)
	}
	return nil
}

func (s *Storage) insert(a domain.Article) {
	if s.dimension == 0 {
		s.dimension = len(a.Embedding)
	}
	s.articles = append(s.articles, a)
}

func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || len(s.articles) == 0 {
		return []domain.QueryResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}

	scores := make([]float64, len(s.articles))
	idxs := make([]int, len(s.articles))
	for i := range s.articles {
		scores[i] = vectorstore.Cosine(s.articles[i].Embedding, vector)
		idxs[i] = i
	}
	// stable: equal scores keep insertion order
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.QueryResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.QueryResult{Article: s.articles[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), nil
}

func (s *Storage) Close() error { return nil }
