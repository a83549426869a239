package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"newsrag/internal/domain"
	"newsrag/internal/textutil"
)

// Relevance is the optional topical check run after the duplicate check.
// An error means the check could not be made; the validator then lets the
// text through.
type Relevance interface {
	Relevant(ctx context.Context, text string) (ok bool, detail string, err error)
}

// Keywords passes text that mentions at least MinHits of the keywords.
// Keywords match on whole words, case-insensitively.
type Keywords struct {
	Words   []string
	MinHits int
}

func (k Keywords) Relevant(_ context.Context, text string) (bool, string, error) {
	norm := " " + strings.Join(textutil.Words(text), " ") + " "
	minHits := k.MinHits
	if minHits <= 0 {
		minHits = 1
	}
	var hits []string
	for _, w := range k.Words {
		w = strings.Join(textutil.Words(w), " ")
		if w != "" && strings.Contains(norm, " "+w+" ") {
			hits = append(hits, w)
		}
	}
	if len(hits) < minHits {
		return false, fmt.Sprintf("%d/%d keyword hits", len(hits), minHits), nil
	}
	return true, "matched " + strings.Join(hits, ", "), nil
}

const relevancePrompt = `You are a short expert validator. Read the article below and answer in JSON form with fields:
{"relevant": "yes/no", "category": "one-word-category", "safe": "yes/no", "comment": "short reason"}

A text is relevant when it is a news article. It is unsafe when it contains hate speech or profanity.

ARTICLE:

%s

JSON:`

// LLMRelevance asks the model whether the text is a safe news article.
type LLMRelevance struct {
	LLM      domain.Generator
	MaxChars int
}

// ErrBadVerdict is returned when the model reply holds no parsable JSON object.
var ErrBadVerdict = errors.New("unparsable relevance verdict")

type verdict struct {
	Relevant yesNo  `json:"relevant"`
	Category string `json:"category"`
	Safe     yesNo  `json:"safe"`
	Comment  string `json:"comment"`
}

// yesNo accepts JSON booleans as well as "yes"/"no" strings.
type yesNo bool

func (y *yesNo) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*y = yesNo(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*y = yesNo(s == "yes" || s == "true" || s == "y")
	default:
		return fmt.Errorf("unexpected verdict value %s", b)
	}
	return nil
}

func (l LLMRelevance) Relevant(ctx context.Context, text string) (bool, string, error) {
	limit := l.MaxChars
	if limit <= 0 {
		limit = 2000
	}
	reply, err := l.LLM.Generate(ctx, fmt.Sprintf(relevancePrompt, textutil.Truncate(text, limit)))
	if err != nil {
		return false, "", err
	}
	v, err := parseVerdict(reply)
	if err != nil {
		return false, "", err
	}
	detail := strings.TrimSpace(strings.Join([]string{v.Category, v.Comment}, ": "))
	switch {
	case !bool(v.Relevant):
		return false, "not relevant: " + detail, nil
	case !bool(v.Safe):
		return false, "unsafe: " + detail, nil
	}
	return true, detail, nil
}

func parseVerdict(reply string) (verdict, error) {
	var v verdict
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return v, ErrBadVerdict
	}
	v.Safe = true
	dec := json.NewDecoder(bytes.NewReader([]byte(reply[start : end+1])))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadVerdict, err)
	}
	return v, nil
}
