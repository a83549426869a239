// Package dedupe keeps exact fingerprints of accepted article text so that a
// re-scrape of the same content is caught without a similarity search.
package dedupe

import (
	"context"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"newsrag/internal/textutil"
)

// Index records which fingerprints have been stored.
type Index interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
	Close() error
}

// Fingerprint hashes the normalized form of text, ignoring case and whitespace.
func Fingerprint(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(textutil.Normalize(text)), 16)
}

// Memory is an in-process Index.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
	return nil
}

func (m *Memory) Close() error { return nil }
