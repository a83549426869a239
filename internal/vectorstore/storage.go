// Package vectorstore holds helpers shared by the vector store backends.
// Each backend implements domain.VectorStore.
package vectorstore

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsrag/internal/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero vector.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Prepare fills the generated fields of an article before it is stored:
// a UUID when ID is empty and the creation time when unset.
func Prepare(a domain.Article) domain.Article {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Embedding != nil {
		a.Embedding = append([]float32(nil), a.Embedding...)
	}
	return a
}
