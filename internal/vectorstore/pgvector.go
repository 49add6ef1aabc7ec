package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"notebook-ai/internal/contextutil"
)

// pgExecer is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// filterColumns maps filterable fields to table columns.
var filterColumns = map[string]string{
	FieldNoteID:    "note_id",
	FieldVersionID: "note_version_id",
	FieldFolderID:  "folder_id",
}

// PGVectorStore implements VectorStore on Postgres with the pgvector extension.
// Users are partitioned by the collection column.
type PGVectorStore struct {
	pool       *pgxpool.Pool
	prefix     string
	vectorSize int
}

// NewPGVectorStore connects to Postgres and creates the embeddings table if needed.
func NewPGVectorStore(ctx context.Context, dsn, collectionPrefix string, vectorSize int) (*PGVectorStore, error) {
	if vectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if collectionPrefix == "" {
		collectionPrefix = "notes"
	}
	s := &PGVectorStore{pool: pool, prefix: collectionPrefix, vectorSize: vectorSize}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *PGVectorStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that Postgres answers.
func (s *PGVectorStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS note_chunk_embeddings (
			id UUID PRIMARY KEY,
			collection TEXT NOT NULL,
			note_id TEXT NOT NULL,
			note_version_id TEXT NOT NULL,
			folder_id TEXT NOT NULL DEFAULT '',
			chunk_index INT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.vectorSize),
		`CREATE INDEX IF NOT EXISTS idx_note_chunk_embeddings_version ON note_chunk_embeddings (collection, note_version_id)`,
		`CREATE INDEX IF NOT EXISTS idx_note_chunk_embeddings_hnsw ON note_chunk_embeddings USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate pgvector schema: %w", err)
		}
	}
	return nil
}

func (s *PGVectorStore) collection(userID string) string {
	return collectionName(s.prefix, userID)
}

// Upsert inserts or updates chunks in the user's partition.
func (s *PGVectorStore) Upsert(ctx context.Context, userID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.upsert(ctx, tx, userID, chunks)
	})
}

func (s *PGVectorStore) upsert(ctx context.Context, q pgExecer, userID string, chunks []Chunk) error {
	collection := s.collection(userID)
	for _, c := range chunks {
		_, err := q.Exec(ctx, `
INSERT INTO note_chunk_embeddings (id, collection, note_id, note_version_id, folder_id, chunk_index, chunk_text, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
ON CONFLICT (id) DO UPDATE SET
	collection = EXCLUDED.collection,
	note_id = EXCLUDED.note_id,
	note_version_id = EXCLUDED.note_version_id,
	folder_id = EXCLUDED.folder_id,
	chunk_index = EXCLUDED.chunk_index,
	chunk_text = EXCLUDED.chunk_text,
	embedding = EXCLUDED.embedding`,
			c.ID, collection, c.NoteID, c.VersionID, c.FolderID, c.ChunkIndex, c.Text, pgvector.NewVector(c.Vector),
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// DeleteByVersion removes every chunk of a version from the user's partition.
func (s *PGVectorStore) DeleteByVersion(ctx context.Context, userID, versionID string) (int, error) {
	return s.deleteByVersion(ctx, s.pool, userID, versionID)
}

func (s *PGVectorStore) deleteByVersion(ctx context.Context, q pgExecer, userID, versionID string) (int, error) {
	tag, err := q.Exec(ctx,
		`DELETE FROM note_chunk_embeddings WHERE collection = $1 AND note_version_id = $2`,
		s.collection(userID), versionID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete version chunks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ReplaceVersion deletes and re-inserts a version's chunks in one transaction.
func (s *PGVectorStore) ReplaceVersion(ctx context.Context, userID, versionID string, chunks []Chunk) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	for _, c := range chunks {
		if c.VersionID != versionID {
			return 0, fmt.Errorf("chunk %s belongs to version %s, not %s", c.ID, c.VersionID, versionID)
		}
	}

	var removed int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := s.deleteByVersion(ctx, tx, userID, versionID)
		if err != nil {
			return err
		}
		removed = n
		return s.upsert(ctx, tx, userID, chunks)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to replace version chunks", "version_id", versionID, "error", err)
		return 0, err
	}

	logger.InfoContext(ctx, "replaced version chunks", "version_id", versionID, "removed", removed, "inserted", len(chunks))
	return removed, nil
}

// Query ranks the user's chunks by cosine similarity.
func (s *PGVectorStore) Query(ctx context.Context, userID string, vector []float32, topK int, filter Filter) ([]Hit, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if filter.MatchesNothing() {
		return []Hit{}, nil
	}

	query, args := buildPGQuery(s.collection(userID), pgvector.NewVector(vector), topK, filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, topK)
	for rows.Next() {
		var h Hit
		var score float64
		if err := rows.Scan(&h.ID, &h.NoteID, &h.VersionID, &h.FolderID, &h.ChunkIndex, &h.Text, &score); err != nil {
			return nil, fmt.Errorf("scan chunk hit: %w", err)
		}
		h.Score = float32(score)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return hits, nil
}

// buildPGQuery renders the similarity query. Filter fields are mapped through
// filterColumns, so only whitelisted column names reach the SQL text.
func buildPGQuery(collection string, vec pgvector.Vector, topK int, filter Filter) (string, []any) {
	args := []any{collection, vec, topK}

	var filterSQL strings.Builder
	for _, p := range filter.Must {
		args = append(args, p.Values)
		fmt.Fprintf(&filterSQL, "\n  AND %s = ANY($%d)", filterColumns[p.Field], len(args))
	}

	query := `
SELECT id::text, note_id, note_version_id, folder_id, chunk_index, chunk_text,
       1 - (embedding <=> $2::vector) AS score
FROM note_chunk_embeddings
WHERE collection = $1` + filterSQL.String() + `
ORDER BY embedding <=> $2::vector
LIMIT $3`
	return query, args
}

// Count returns the number of chunks in the user's partition.
func (s *PGVectorStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM note_chunk_embeddings WHERE collection = $1`, s.collection(userID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
