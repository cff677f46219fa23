package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"sapirag/internal/core/domain"
)

// ChunkRepository persists document chunks and serves the lexical and
// vector queries. Lexical ranking uses ts_rank_cd over an accent-folded
// Hungarian text-search configuration; vector scoring is cosine similarity
// via pgvector.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context, embeddingDim int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS unaccent;

CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	workspace TEXT NOT NULL,
	filename TEXT NOT NULL,
	header TEXT NOT NULL,
	body TEXT NOT NULL,
	embedding VECTOR(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_workspace ON documents(workspace);
CREATE INDEX IF NOT EXISTS idx_documents_workspace_filename ON documents(workspace, filename);
`, embeddingDim)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrIndexQuery, "begin insert tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO documents (id, workspace, filename, header, body, embedding, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`)
	if err != nil {
		return domain.WrapError(domain.ErrIndexQuery, "prepare chunk insert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Workspace, c.Filename, c.Header, c.Body,
			pgvector.NewVector(c.Embedding), c.CreatedAt,
		); err != nil {
			return domain.WrapError(domain.ErrIndexQuery, "insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrIndexQuery, "commit chunk insert", err)
	}
	return nil
}

func (r *ChunkRepository) CountByFile(ctx context.Context, workspace, filename string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT count(*) FROM documents WHERE workspace = $1 AND filename = $2
`, workspace, filename).Scan(&count)
	if err != nil {
		return 0, domain.WrapError(domain.ErrIndexQuery, "count chunks", err)
	}
	return count, nil
}

func (r *ChunkRepository) DeleteByFile(ctx context.Context, workspace, filename string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM documents WHERE workspace = $1 AND filename = $2
`, workspace, filename)
	if err != nil {
		return domain.WrapError(domain.ErrIndexQuery, "delete file chunks", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByWorkspace(ctx context.Context, workspace string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE workspace = $1`, workspace)
	if err != nil {
		return domain.WrapError(domain.ErrIndexQuery, "delete workspace chunks", err)
	}
	return nil
}

// SearchLexical builds a conjunctive prefix tsquery from the word terms of
// the query (every term must match as a prefix) and ranks matches with
// ts_rank_cd. Zero extracted terms short-circuit to an empty result.
func (r *ChunkRepository) SearchLexical(ctx context.Context, query string, scope domain.Scope, topK int) ([]domain.Candidate, error) {
	tsQuery := buildPrefixTSQuery(extractTerms(query))
	if tsQuery == "" {
		return nil, nil
	}

	column, value := scopePredicate(scope)
	sqlQuery := fmt.Sprintf(`
SELECT header, body, filename,
	ts_rank_cd(
		to_tsvector('hungarian', unaccent(header || ' ' || body)),
		to_tsquery('hungarian', $1)
	) AS rank
FROM documents
WHERE %s = $2
	AND to_tsvector('hungarian', unaccent(header || ' ' || body))
		@@ to_tsquery('hungarian', $1)
ORDER BY rank DESC
LIMIT $3
`, column)

	rows, err := r.db.QueryContext(ctx, sqlQuery, tsQuery, value, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "lexical query", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// SearchVector orders by cosine similarity computed as 1 - (embedding <=> q).
func (r *ChunkRepository) SearchVector(ctx context.Context, embedding []float32, scope domain.Scope, topK int) ([]domain.Candidate, error) {
	column, value := scopePredicate(scope)
	sqlQuery := fmt.Sprintf(`
SELECT header, body, filename,
	1 - (embedding <=> $1) AS score
FROM documents
WHERE %s = $2
ORDER BY score DESC
LIMIT $3
`, column)

	rows, err := r.db.QueryContext(ctx, sqlQuery, pgvector.NewVector(embedding), value, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "vector query", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

func scanCandidates(rows *sql.Rows) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.Header, &c.Body, &c.Filename, &c.Score); err != nil {
			return nil, domain.WrapError(domain.ErrIndexQuery, "scan candidate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "iterate candidates", err)
	}
	return out, nil
}

// scopePredicate picks the filter column; filename wins when both are set.
func scopePredicate(scope domain.Scope) (column, value string) {
	if scope.Filename != "" {
		return "filename", scope.Filename
	}
	return "workspace", scope.Workspace
}

// extractTerms splits the query into case-folded Unicode word terms,
// mirroring a `\w+` scan.
func extractTerms(query string) []string {
	var terms []string
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			terms = append(terms, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		terms = append(terms, b.String())
	}
	return terms
}

// buildPrefixTSQuery renders `t1:* & t2:* & ...`, the conjunctive
// prefix-match expression handed to to_tsquery.
func buildPrefixTSQuery(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + ":*"
	}
	return strings.Join(parts, " & ")
}
