package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"newsrag/internal/domain"
	"newsrag/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection on first write.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu        sync.Mutex
	dimension int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// statusError is a non-2xx answer from Qdrant.
type statusError struct {
	method string
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

// ensureCollection creates the collection with the given vector size if missing.
func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 {
		if dimension != s.dimension {
			return fmt.Errorf("%w: got %d, collection has %d", domain.ErrDimensionMismatch, dimension, s.dimension)
		}
		return nil
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(), nil, &info)
	switch {
	case err == nil:
		size := info.Result.Config.Params.Vectors.Size
		if size != 0 && size != dimension {
			return fmt.Errorf("%w: got %d, collection has %d", domain.ErrDimensionMismatch, dimension, size)
		}
	case isNotFound(err):
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		if err := s.do(ctx, http.MethodPut, s.collectionURL(), body, nil); err != nil {
			return err
		}
	default:
		return err
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Add(ctx context.Context, article domain.Article) (string, error) {
	if len(article.Embedding) == 0 {
		return "", fmt.Errorf("%w: article has no embedding", domain.ErrInvalidArgument)
	}
	if err := s.ensureCollection(ctx, len(article.Embedding)); err != nil {
		return "", err
	}
	article = vectorstore.Prepare(article)

	point := map[string]any{
		"id":     article.ID,
		"vector": article.Embedding,
		"payload": map[string]any{
			"url":          article.URL,
			"title":        article.Title,
			"raw_text":     article.RawText,
			"cleaned_text": article.CleanedText,
			"summary":      article.Summary,
			"source_id":    article.SourceID,
			"created_at":   article.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	body := map[string]any{"points": []any{point}}
	if err := s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil); err != nil {
		return "", err
	}
	return article.ID, nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp)
	if isNotFound(err) {
		return []domain.QueryResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	results := make([]domain.QueryResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		a := domain.Article{ID: fmt.Sprint(r.ID)}
		a.URL, _ = r.Payload["url"].(string)
		a.Title, _ = r.Payload["title"].(string)
		a.RawText, _ = r.Payload["raw_text"].(string)
		a.CleanedText, _ = r.Payload["cleaned_text"].(string)
		a.Summary, _ = r.Payload["summary"].(string)
		a.SourceID, _ = r.Payload["source_id"].(string)
		if v, ok := r.Payload["created_at"].(string); ok {
			a.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
		}
		results = append(results, domain.QueryResult{Article: a, Score: r.Score})
	}
	// qdrant leaves tie order unspecified; older records win
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Article.CreatedAt.Before(results[j].Article.CreatedAt)
	})
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/count", map[string]any{"exact": true}, &resp)
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) do(ctx context.Context, method, url string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode qdrant request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{method: method, url: url, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
