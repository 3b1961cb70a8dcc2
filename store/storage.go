package store

import (
	"context"
	"fmt"
	"log"

	"ragsql/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddedDocument is a schema document together with its embedding vector,
// ready to be persisted.
type EmbeddedDocument struct {
	Document  types.SchemaDocument
	Embedding []float32
}

type Summary struct {
	TotalDocuments int `json:"total_documents"`
	Tables         int `json:"tables"`
	Views          int `json:"views"`
	Relationships  int `json:"relationships"`
}

type VectorStorer interface {
	Init(context.Context) error
	Replace(context.Context, []EmbeddedDocument) error
	Search(context.Context, []float32, int) ([]types.RetrievedDocument, error)
	Count(context.Context) (int, error)
	Summary(context.Context) (Summary, error)
	TableNames(context.Context) ([]string, error)
	Close() error
}

type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
		dim:  dim,
	}, nil
}

func (p *PostgresStore) createSchemaTables(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS schema_documents (
        id UUID PRIMARY KEY,
        name TEXT NOT NULL,
        kind TEXT CHECK (kind IN ('table','view','relationships')),
        row_count BIGINT,
        content TEXT NOT NULL,
        embedding vector(%d),
        created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
    );

	-- Индекс для быстрого поиска по вектору
	CREATE INDEX IF NOT EXISTS idx_schema_documents_embedding ON schema_documents
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_schema_documents_kind ON schema_documents(kind);
	CREATE INDEX IF NOT EXISTS idx_schema_documents_name ON schema_documents(name);
    `, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createSchemaTables(ctx)
}

// Replace drops every stored schema document and inserts the new set. The
// embedded schema always reflects one introspection snapshot, never a mix.
func (p *PostgresStore) Replace(ctx context.Context, docs []EmbeddedDocument) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM schema_documents"); err != nil {
		return fmt.Errorf("error clearing schema documents: %w", err)
	}

	query := `
    INSERT INTO schema_documents (id, name, kind, row_count, content, embedding)
    VALUES ($1, $2, $3, $4, $5, $6)
    `
	for _, doc := range docs {
		_, err := p.pool.Exec(ctx, query,
			uuid.New(),
			doc.Document.Name,
			string(doc.Document.Kind),
			doc.Document.RowCount,
			doc.Document.Content,
			pgvector.NewVector(doc.Embedding),
		)
		if err != nil {
			return fmt.Errorf("error saving schema document %q: %w", doc.Document.Name, err)
		}
	}

	log.Printf("[STORE] Saved %d schema documents", len(docs))
	return nil
}

// Search returns the k nearest documents by cosine distance, best match
// first. The raw distance is returned as-is; threshold filtering is the
// caller's concern.
func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.RetrievedDocument, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	vector := pgvector.NewVector(queryVec)

	query := `
		SELECT name, kind, row_count, content,
		       embedding <=> $1 AS distance
		FROM schema_documents
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, vector, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.RetrievedDocument
	for rows.Next() {
		var rd types.RetrievedDocument
		var kind string
		if err := rows.Scan(
			&rd.Document.Name,
			&kind,
			&rd.Document.RowCount,
			&rd.Document.Content,
			&rd.Distance); err != nil {
			return nil, err
		}
		rd.Document.Kind = types.DocumentKind(kind)

		log.Printf("[SEARCH] Found document: %s (%s), distance: %.4f", rd.Document.Name, kind, rd.Distance)
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_documents").Scan(&count)
	return count, err
}

func (p *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	rows, err := p.pool.Query(ctx, "SELECT kind, COUNT(*) FROM schema_documents GROUP BY kind")
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return Summary{}, err
		}
		summary.TotalDocuments += count
		switch types.DocumentKind(kind) {
		case types.KindTable:
			summary.Tables = count
		case types.KindView:
			summary.Views = count
		case types.KindRelationships:
			summary.Relationships = count
		}
	}
	return summary, rows.Err()
}

func (p *PostgresStore) TableNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT DISTINCT name FROM schema_documents WHERE kind = $1 ORDER BY name", string(types.KindTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close закрывает пул подключений
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
