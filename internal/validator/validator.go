// Package validator decides whether a cleaned article is worth storing:
// long enough, not already stored, and optionally on topic.
package validator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"newsrag/internal/dedupe"
	"newsrag/internal/domain"
	"newsrag/internal/logger"
	"newsrag/internal/textutil"
)

const (
	DefaultMinChars           = 50
	DefaultDuplicateThreshold = 0.85
)

type Config struct {
	MinChars           int
	MinWords           int
	DuplicateThreshold float64
}

type Validator struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	index     dedupe.Index
	relevance Relevance
	cfg       Config
	log       *logger.Logger
}

// New builds a validator. relevance may be nil to skip the topical check.
func New(embedder domain.Embedder, store domain.VectorStore, index dedupe.Index, relevance Relevance, cfg Config, log *logger.Logger) *Validator {
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Validator{
		embedder:  embedder,
		store:     store,
		index:     index,
		relevance: relevance,
		cfg:       cfg,
		log:       log.Component("validator"),
	}
}

// Validate runs length, duplicate and relevance checks in that order and
// stops at the first failure. A rejection is a result, not an error; errors
// come only from the embedder, the store or the fingerprint index.
// Once the text has been embedded, the vector is returned in the result.
func (v *Validator) Validate(ctx context.Context, text string) (domain.ValidationResult, error) {
	text = strings.TrimSpace(text)

	if n := utf8.RuneCountInString(text); n < v.cfg.MinChars {
		return domain.Reject(domain.ReasonTooShort, fmt.Sprintf("%d chars, need %d", n, v.cfg.MinChars)), nil
	}
	if n := textutil.WordCount(text); n < v.cfg.MinWords {
		return domain.Reject(domain.ReasonTooShort, fmt.Sprintf("%d words, need %d", n, v.cfg.MinWords)), nil
	}

	seen, err := v.index.Seen(ctx, dedupe.Fingerprint(text))
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if seen {
		res := domain.Reject(domain.ReasonDuplicate, "identical text already stored")
		res.Similarity = 1
		return res, nil
	}

	vec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("embed for duplicate check: %w", err)
	}
	nearest, err := v.store.Query(ctx, vec, 1)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("nearest neighbour: %w", err)
	}
	var sim float64
	if len(nearest) > 0 {
		sim = nearest[0].Score
		if sim >= v.cfg.DuplicateThreshold {
			res := domain.Reject(domain.ReasonDuplicate, fmt.Sprintf("similar to %s", nearest[0].Article.URL))
			res.Similarity = sim
			res.Embedding = vec
			return res, nil
		}
	}

	if v.relevance != nil {
		ok, detail, err := v.relevance.Relevant(ctx, text)
		switch {
		case err != nil:
			v.log.Warn("relevance check failed, accepting", "error", err)
		case !ok:
			res := domain.Reject(domain.ReasonLowRelevance, detail)
			res.Similarity = sim
			res.Embedding = vec
			return res, nil
		}
	}

	res := domain.Accept()
	res.Similarity = sim
	res.Embedding = vec
	return res, nil
}

// Remember records the fingerprint of text once it has been stored.
func (v *Validator) Remember(ctx context.Context, text string) error {
	return v.index.Mark(ctx, dedupe.Fingerprint(strings.TrimSpace(text)))
}
