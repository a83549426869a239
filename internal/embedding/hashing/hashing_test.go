package hashing

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbed_Deterministic(t *testing.T) {
	ctx := context.Background()
	text := "AI is transforming industries worldwide with widespread adoption."

	a, err := NewEmbedder(0).Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := NewEmbedder(0).Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text produced different vectors")
	}
	if len(a) != DefaultDimension {
		t.Errorf("len = %d, want %d", len(a), DefaultDimension)
	}
	if got := cosine(a, a); math.Abs(got-1) > 1e-6 {
		t.Errorf("self similarity = %f", got)
	}
}

func TestEmbed_Similarity(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder(256)

	base, _ := e.Embed(ctx, "Central bank raises interest rates to fight inflation.")
	near, _ := e.Embed(ctx, "The central bank raises interest rates again to fight inflation.")
	far, _ := e.Embed(ctx, "Local football club wins the championship final.")

	if cosine(base, near) <= cosine(base, far) {
		t.Errorf("related text not closer: near=%f far=%f", cosine(base, near), cosine(base, far))
	}
}

func TestEmbed_StopwordsOnly(t *testing.T) {
	vec, err := NewEmbedder(16).Embed(context.Background(), "the and of to")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vec)
		}
	}
}

func TestEmbed_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEmbedder(8).Embed(ctx, "text"); err == nil {
		t.Error("expected context error")
	}
}
