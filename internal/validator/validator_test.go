package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"newsrag/internal/dedupe"
	"newsrag/internal/domain"
	"newsrag/internal/embedding/hashing"
	"newsrag/internal/vectorstore/memory"
)

const aiText = "AI is transforming industries worldwide with widespread adoption."

func newValidator(t *testing.T, rel Relevance) (*Validator, *memory.Storage) {
	t.Helper()
	store := memory.NewStorage()
	v := New(hashing.NewEmbedder(0), store, dedupe.NewMemory(), rel, Config{}, nil)
	return v, store
}

// store adds text the way the ingest pipeline does.
func store(t *testing.T, v *Validator, s *memory.Storage, text string) {
	t.Helper()
	res, err := v.Validate(context.Background(), text)
	if err != nil || !res.Accepted {
		t.Fatalf("Validate(%q) = %+v, %v", text, res, err)
	}
	if _, err := s.Add(context.Background(), domain.Article{URL: "u", CleanedText: text, Embedding: res.Embedding}); err != nil {
		t.Fatal(err)
	}
	if err := v.Remember(context.Background(), text); err != nil {
		t.Fatal(err)
	}
}

func TestValidate_TooShort(t *testing.T) {
	v, _ := newValidator(t, nil)
	for _, text := range []string{"", "   ", "Short text.", strings.Repeat("x", 49)} {
		res, err := v.Validate(context.Background(), text)
		if err != nil {
			t.Fatalf("Validate(%q) error: %v", text, err)
		}
		if res.Accepted || res.Reason != domain.ReasonTooShort {
			t.Errorf("Validate(%q) = %+v, want TOO_SHORT", text, res)
		}
	}
}

func TestValidate_MinWords(t *testing.T) {
	v := New(hashing.NewEmbedder(0), memory.NewStorage(), dedupe.NewMemory(), nil, Config{MinWords: 20}, nil)
	res, _ := v.Validate(context.Background(), aiText)
	if res.Reason != domain.ReasonTooShort {
		t.Errorf("Reason = %s, want TOO_SHORT", res.Reason)
	}
}

func TestValidate_AcceptsAndExposesEmbedding(t *testing.T) {
	v, _ := newValidator(t, nil)
	res, err := v.Validate(context.Background(), aiText)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.Reason != domain.ReasonOK {
		t.Fatalf("res = %+v", res)
	}
	if len(res.Embedding) != hashing.DefaultDimension {
		t.Errorf("embedding len = %d", len(res.Embedding))
	}
}

func TestValidate_Duplicate(t *testing.T) {
	v, s := newValidator(t, nil)
	store(t, v, s, aiText)

	tests := []struct {
		name string
		text string
	}{
		{"exact", aiText},
		{"case and spacing", "  ai is transforming   industries worldwide with widespread adoption. "},
		{"near", "AI is transforming industries worldwide with widespread adoption!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if res.Accepted || res.Reason != domain.ReasonDuplicate {
				t.Errorf("res = %+v, want DUPLICATE", res)
			}
			if res.Similarity < DefaultDuplicateThreshold {
				t.Errorf("similarity = %f", res.Similarity)
			}
		})
	}

	res, _ := v.Validate(context.Background(), "Central banks held interest rates steady as inflation cooled across Europe.")
	if !res.Accepted {
		t.Errorf("unrelated text rejected: %+v", res)
	}
}

func TestValidate_KeywordRelevance(t *testing.T) {
	v, _ := newValidator(t, Keywords{Words: []string{"AI", "machine learning"}, MinHits: 1})

	res, _ := v.Validate(context.Background(), aiText)
	if !res.Accepted {
		t.Errorf("on-topic text rejected: %+v", res)
	}
	res, _ = v.Validate(context.Background(), "Football club wins the league after a dramatic final day of the season.")
	if res.Accepted || res.Reason != domain.ReasonLowRelevance {
		t.Errorf("off-topic text = %+v, want LOW_RELEVANCE", res)
	}
}

func TestValidate_LLMRelevance(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		err    error
		accept bool
	}{
		{"relevant", `Sure: {"relevant": "yes", "category": "tech", "safe": "yes", "comment": "news"}`, nil, true},
		{"not relevant", `{"relevant": "no", "category": "ad", "safe": "yes", "comment": "advert"}`, nil, false},
		{"unsafe", `{"relevant": true, "category": "x", "safe": false, "comment": "hate"}`, nil, false},
		{"garbage falls back", `I cannot answer`, nil, true},
		{"llm error falls back", "", errors.New("down"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := domain.GeneratorFunc(func(context.Context, string) (string, error) { return tt.reply, tt.err })
			v, _ := newValidator(t, LLMRelevance{LLM: gen})
			res, err := v.Validate(context.Background(), aiText)
			if err != nil {
				t.Fatal(err)
			}
			if res.Accepted != tt.accept {
				t.Errorf("res = %+v, want accepted=%v", res, tt.accept)
			}
			if !tt.accept && res.Reason != domain.ReasonLowRelevance {
				t.Errorf("reason = %s", res.Reason)
			}
		})
	}
}
