// Package local is the default on-disk vector store. A collection lives in
// <dir>/<collection>/ as an append-only records.jsonl plus a collection.yaml
// manifest. Records are loaded into memory on open and searched brute-force.
package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"newsrag/internal/domain"
	"newsrag/internal/logger"
	"newsrag/internal/vectorstore"
	"newsrag/internal/vectorstore/memory"
)

const (
	recordsFile  = "records.jsonl"
	manifestFile = "collection.yaml"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("local store is closed")

// Manifest describes a collection on disk.
type Manifest struct {
	Name      string    `yaml:"name"`
	Dimension int       `yaml:"dimension"`
	Embedder  string    `yaml:"embedder,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Storage persists articles to disk and serves queries from memory.
type Storage struct {
	mu       sync.Mutex
	path     string
	manifest Manifest
	mem      *memory.Storage
	records  *os.File
}

// Open loads or creates the collection directory <dir>/<collection>.
// embedder is recorded in the manifest of a new collection. A partial last
// record left by an interrupted append is dropped and the file truncated.
func Open(dir, collection, embedder string, log *logger.Logger) (*Storage, error) {
	if dir == "" || collection == "" {
		return nil, fmt.Errorf("open local store: %w: dir and collection are required", domain.ErrInvalidArgument)
	}
	path := filepath.Join(dir, collection)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create collection dir: %w", err)
	}

	s := &Storage{path: path, mem: memory.NewStorage()}

	m, err := readManifest(filepath.Join(path, manifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.manifest = Manifest{Name: collection, Embedder: embedder, CreatedAt: time.Now().UTC()}
		if err := s.writeManifest(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		s.manifest = m
	}

	recordsPath := filepath.Join(path, recordsFile)
	articles, size, torn, err := readRecords(recordsPath)
	if err != nil {
		return nil, err
	}
	if torn {
		log.Warn("dropping partial record at end of collection", "path", recordsPath, "offset", size)
		if err := os.Truncate(recordsPath, size); err != nil {
			return nil, fmt.Errorf("truncate torn record: %w", err)
		}
	}
	if err := s.mem.Load(articles); err != nil {
		return nil, fmt.Errorf("load %s: %w", recordsFile, err)
	}

	f, err := os.OpenFile(recordsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	s.records = f
	return s, nil
}

// Manifest returns the collection manifest.
func (s *Storage) Manifest() Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

func (s *Storage) Add(ctx context.Context, article domain.Article) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	article = vectorstore.Prepare(article)
	line, err := json.Marshal(article)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records == nil {
		return "", ErrClosed
	}
	if err := s.mem.Check(article.Embedding); err != nil {
		return "", err
	}

	if s.manifest.Dimension == 0 {
		s.manifest.Dimension = len(article.Embedding)
		if err := s.writeManifest(); err != nil {
			return "", err
		}
	}
	info, err := s.records.Stat()
	if err != nil {
		return "", fmt.Errorf("stat records: %w", err)
	}
	if _, err := s.records.Write(append(line, '\n')); err != nil {
		if terr := s.records.Truncate(info.Size()); terr != nil {
			return "", fmt.Errorf("append record: %w (truncate: %v)", err, terr)
		}
		return "", fmt.Errorf("append record: %w", err)
	}
	if err := s.records.Sync(); err != nil {
		return "", fmt.Errorf("sync records: %w", err)
	}
	if err := s.mem.Load([]domain.Article{article}); err != nil {
		return "", err
	}
	return article.ID, nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	return s.mem.Query(ctx, vector, k)
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	return s.mem.Count(ctx)
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		return nil
	}
	err := s.records.Close()
	s.records = nil
	return err
}

func (s *Storage) writeManifest() error {
	data, err := yaml.Marshal(s.manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.path, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// readRecords returns the decoded records and the size of the file up to the
// last complete line. torn reports a trailing fragment without a newline.
func readRecords(path string) (articles []domain.Article, size int64, torn bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	line := 0
	for {
		data, rerr := r.ReadBytes('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, 0, false, fmt.Errorf("read records: %w", rerr)
		}
		if errors.Is(rerr, io.EOF) {
			// an unterminated tail was never acknowledged by Add
			return articles, size, len(data) > 0, nil
		}
		line++
		size += int64(len(data))
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			continue
		}
		var a domain.Article
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, 0, false, fmt.Errorf("%s line %d: %w", recordsFile, line, err)
		}
		articles = append(articles, a)
	}
}
