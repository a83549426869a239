package domain

import (
	"time"

	"newsrag/internal/textutil"
)

// SnippetChars bounds the text shown for a source when it has no summary.
const SnippetChars = 280

// Article is a scraped news article as persisted in the vector store.
// It is immutable once stored.
type Article struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	RawText     string    `json:"raw_text,omitempty"`
	CleanedText string    `json:"cleaned_text"`
	Summary     string    `json:"summary,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reason explains a validation outcome.
type Reason string

const (
	ReasonOK           Reason = "OK"
	ReasonTooShort     Reason = "TOO_SHORT"
	ReasonDuplicate    Reason = "DUPLICATE"
	ReasonLowRelevance Reason = "LOW_RELEVANCE"
)

// ValidationResult is computed per scrape attempt and never stored.
type ValidationResult struct {
	Accepted   bool    `json:"accepted"`
	Reason     Reason  `json:"reason"`
	Similarity float64 `json:"similarity,omitempty"`
	Detail     string  `json:"detail,omitempty"`

	// Embedding is the vector computed for the duplicate check, if any.
	Embedding []float32 `json:"-"`
}

// Accept returns an accepted result.
func Accept() ValidationResult {
	return ValidationResult{Accepted: true, Reason: ReasonOK}
}

// Reject returns a rejected result with the given reason.
func Reject(reason Reason, detail string) ValidationResult {
	return ValidationResult{Accepted: false, Reason: reason, Detail: detail}
}

// QueryResult is a matching article with its similarity score.
type QueryResult struct {
	Article Article `json:"article"`
	Score   float64 `json:"score"`
}

// Answer is the outcome of a RAG question.
type Answer struct {
	Question  string        `json:"question"`
	Text      string        `json:"answer"`
	Sources   []QueryResult `json:"sources"`
	NoContext bool          `json:"no_context"`
	Degraded  bool          `json:"degraded,omitempty"`
}

// SourceRef is the public view of an answer source, without raw text or
// embedding.
type SourceRef struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// AnswerView is the Answer as returned to API and CLI callers.
type AnswerView struct {
	Question  string      `json:"question"`
	Text      string      `json:"answer"`
	Sources   []SourceRef `json:"sources"`
	NoContext bool        `json:"no_context"`
	Degraded  bool        `json:"degraded,omitempty"`
}

// View trims each source to its reference and a short snippet, preferring
// the stored summary.
func (a Answer) View() AnswerView {
	v := AnswerView{
		Question:  a.Question,
		Text:      a.Text,
		Sources:   make([]SourceRef, 0, len(a.Sources)),
		NoContext: a.NoContext,
		Degraded:  a.Degraded,
	}
	for _, r := range a.Sources {
		snippet := r.Article.Summary
		if snippet == "" {
			snippet = textutil.Truncate(r.Article.CleanedText, SnippetChars)
		}
		v.Sources = append(v.Sources, SourceRef{
			ID:      r.Article.ID,
			URL:     r.Article.URL,
			Title:   r.Article.Title,
			Score:   r.Score,
			Snippet: snippet,
		})
	}
	return v
}
