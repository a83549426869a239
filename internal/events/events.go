// Package events announces newly ingested articles to downstream consumers.
package events

import (
	"context"
	"time"

	"newsrag/internal/domain"
)

// ArticleIngested is published once per stored article.
type ArticleIngested struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	SourceID  string    `json:"source_id,omitempty"`
	Words     int       `json:"words"`
	CreatedAt time.Time `json:"created_at"`
}

// FromArticle builds the event for a stored article.
func FromArticle(a domain.Article, words int) ArticleIngested {
	return ArticleIngested{
		ID:        a.ID,
		URL:       a.URL,
		Title:     a.Title,
		SourceID:  a.SourceID,
		Words:     words,
		CreatedAt: a.CreatedAt,
	}
}

// Publisher sends ingest events somewhere. Failures must never fail an ingest;
// callers log them.
type Publisher interface {
	Publish(ctx context.Context, ev ArticleIngested) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, ArticleIngested) error { return nil }
func (Noop) Close() error                                   { return nil }
