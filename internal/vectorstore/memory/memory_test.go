package memory

import (
	"context"
	"errors"
	"testing"

	"newsrag/internal/domain"
)

func article(url string, vec ...float32) domain.Article {
	return domain.Article{URL: url, CleanedText: "text of " + url, Embedding: vec}
}

func TestAdd_GeneratesIDs(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	id1, err := s.Add(ctx, article("a", 1, 0))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	id2, _ := s.Add(ctx, article("a", 1, 0))
	if id1 == "" || id1 == id2 {
		t.Errorf("ids not unique: %q %q", id1, id2)
	}
	// no overwrite semantics: same URL twice is two records
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestAdd_Errors(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if _, err := s.Add(ctx, article("empty")); !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("err = %v, want ErrEmptyEmbedding", err)
	}
	if _, err := s.Add(ctx, article("a", 1, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, article("b", 1, 0, 0)); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestQuery_Bounds(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	res, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil || len(res) != 0 {
		t.Fatalf("empty store: res=%v err=%v", res, err)
	}

	vecs := [][]float32{{1, 0}, {0, 1}, {1, 1}, {-1, 0}}
	for i, v := range vecs {
		if _, err := s.Add(ctx, article(string(rune('a'+i)), v...)); err != nil {
			t.Fatal(err)
		}
	}

	for k := 0; k <= 6; k++ {
		res, err := s.Query(ctx, []float32{1, 0}, k)
		if err != nil {
			t.Fatalf("Query(k=%d) failed: %v", k, err)
		}
		want := k
		if want > len(vecs) {
			want = len(vecs)
		}
		if len(res) != want {
			t.Errorf("Query(k=%d) returned %d results, want %d", k, len(res), want)
		}
	}

	res, _ = s.Query(ctx, []float32{1, 0}, 4)
	order := []string{"a", "c", "b", "d"}
	for i, r := range res {
		if r.Article.URL != order[i] {
			t.Errorf("result %d = %s, want %s", i, r.Article.URL, order[i])
		}
	}
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	for _, u := range []string{"first", "second", "third"} {
		if _, err := s.Add(ctx, article(u, 0, 1)); err != nil {
			t.Fatal(err)
		}
	}
	res, _ := s.Query(ctx, []float32{0, 1}, 3)
	for i, u := range []string{"first", "second", "third"} {
		if res[i].Article.URL != u {
			t.Errorf("tie order[%d] = %s, want %s", i, res[i].Article.URL, u)
		}
	}
}

func TestQuery_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	_, _ = s.Add(ctx, article("a", 1, 0))
	if _, err := s.Query(ctx, []float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("err = %v", err)
	}
}
