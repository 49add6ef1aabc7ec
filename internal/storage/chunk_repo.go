package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks notebook-ai/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ChunkStore defines the interface for chunk ledger operations.
type ChunkStore interface {
	// ReplaceForVersion deletes the version's chunks and inserts the given ones in one transaction.
	// Returns the number of rows removed.
	ReplaceForVersion(ctx context.Context, versionID string, chunks []*ChunkRecord) (int, error)
	// DeleteByVersion deletes all chunks for a version. Returns the number of rows removed.
	DeleteByVersion(ctx context.Context, versionID string) (int, error)
	// ListIDsByVersion returns all chunk IDs for a version, ordered by chunk_index.
	ListIDsByVersion(ctx context.Context, versionID string) ([]string, error)
	// CountByUser returns how many chunks a user has embedded.
	CountByUser(ctx context.Context, userID string) (int, error)
	// ListByUser returns every chunk of a user ordered by version and index.
	ListByUser(ctx context.Context, userID string) ([]ChunkRecord, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForVersion swaps the chunk set of a version atomically.
// Every chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) ReplaceForVersion(ctx context.Context, versionID string, chunks []*ChunkRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE note_version_id = ?", versionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks by version: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, user_id, note_id, note_version_id, chunk_index, text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	now := time.Now().UTC()
	for _, chunk := range chunks {
		if chunk.VersionID != versionID {
			return 0, fmt.Errorf("chunk %s belongs to version %s, not %s", chunk.ID, chunk.VersionID, versionID)
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.UserID, chunk.NoteID, chunk.VersionID, chunk.ChunkIndex, chunk.Text, formatTime(chunk.CreatedAt),
		); err != nil {
			return 0, fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return int(removed), nil
}

// DeleteByVersion deletes all chunks for a given version ID.
// Deleting a version without chunks is not an error.
func (r *ChunkRepo) DeleteByVersion(ctx context.Context, versionID string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE note_version_id = ?", versionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks by version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

// ListIDsByVersion returns all chunk IDs for a given version, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListIDsByVersion(ctx context.Context, versionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE note_version_id = ? ORDER BY chunk_index",
		versionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// CountByUser returns how many chunks a user has embedded.
func (r *ChunkRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// ListByUser returns every chunk of a user ordered by version and index.
func (r *ChunkRepo) ListByUser(ctx context.Context, userID string) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, note_id, note_version_id, chunk_index, text, created_at
		 FROM chunks WHERE user_id = ? ORDER BY note_version_id, chunk_index`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, note_id, note_version_id, chunk_index, text, created_at FROM chunks WHERE id = ?",
		id,
	)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func scanChunk(row rowScanner) (*ChunkRecord, error) {
	var chunk ChunkRecord
	var createdAt string
	if err := row.Scan(&chunk.ID, &chunk.UserID, &chunk.NoteID, &chunk.VersionID, &chunk.ChunkIndex, &chunk.Text, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan chunk: %w", err)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	chunk.CreatedAt = t
	return &chunk, nil
}
