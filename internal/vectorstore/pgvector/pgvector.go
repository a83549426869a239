// Package pgvector stores articles in a PostgreSQL table using the pgvector
// extension. Similarity ordering is done by the database (cosine distance),
// with the insertion sequence breaking ties.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"newsrag/internal/domain"
	"newsrag/internal/vectorstore"
)

// Storage is a pgvector-backed domain.VectorStore.
type Storage struct {
	db    *sql.DB
	table string
}

// Open connects to dsn and creates the extension and table if missing.
func Open(ctx context.Context, dsn, table string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Storage{db: db, table: pq.QuoteIdentifier(table)}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq          BIGSERIAL PRIMARY KEY,
			id           TEXT UNIQUE NOT NULL,
			url          TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			raw_text     TEXT NOT NULL DEFAULT '',
			cleaned_text TEXT NOT NULL,
			summary      TEXT NOT NULL DEFAULT '',
			source_id    TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL,
			embedding    vector NOT NULL
		)`, s.table),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *Storage) Add(ctx context.Context, article domain.Article) (string, error) {
	if len(article.Embedding) == 0 {
		return "", fmt.Errorf("%w: article has no embedding", domain.ErrInvalidArgument)
	}
	article = vectorstore.Prepare(article)
	q := fmt.Sprintf(`INSERT INTO %s (id, url, title, raw_text, cleaned_text, summary, source_id, created_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		article.ID,
		article.URL,
		article.Title,
		article.RawText,
		article.CleanedText,
		article.Summary,
		article.SourceID,
		article.CreatedAt,
		pgv.NewVector(article.Embedding),
	)
	if err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return article.ID, nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}
	q := fmt.Sprintf(`SELECT id, url, title, raw_text, cleaned_text, summary, source_id, created_at, embedding,
			1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, s.table)
	rows, err := s.db.QueryContext(ctx, q, pgv.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	results := make([]domain.QueryResult, 0, k)
	for rows.Next() {
		var (
			a     domain.Article
			emb   pgv.Vector
			score sql.NullFloat64
			ts    time.Time
		)
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.RawText, &a.CleanedText, &a.Summary, &a.SourceID, &ts, &emb, &score); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.CreatedAt = ts.UTC()
		a.Embedding = emb.Slice()
		results = append(results, domain.QueryResult{Article: a, Score: score.Float64})
	}
	return results, rows.Err()
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (s *Storage) Close() error { return s.db.Close() }
