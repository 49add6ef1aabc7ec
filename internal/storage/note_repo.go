package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notebook-ai/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// GetByID gets a non-deleted note owned by userID.
	// Returns nil and ErrNotFound if the note is missing, deleted or owned by someone else.
	GetByID(ctx context.Context, noteID, userID string) (*Note, error)
	// Create inserts a note together with its first (draft) version.
	Create(ctx context.Context, note *Note, richContent json.RawMessage, plainText string) (*Version, error)
	// SoftDelete marks a note deleted. Versions are kept.
	SoftDelete(ctx context.Context, noteID, userID string) error
	// SearchText runs a case-insensitive substring search over titles and current content.
	SearchText(ctx context.Context, userID, query string, limit int) ([]NoteWithVersion, error)
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

const noteColumns = "n.id, n.user_id, n.folder_id, n.title, n.current_version_id, n.is_pinned, n.is_deleted, n.created_at, n.updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner, extra ...any) (*Note, error) {
	var note Note
	var folderID, currentVersionID sql.NullString
	var isPinned, isDeleted int
	var createdAt, updatedAt string

	dest := []any{&note.ID, &note.UserID, &folderID, &note.Title, &currentVersionID, &isPinned, &isDeleted, &createdAt, &updatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	note.FolderID = stringPtr(folderID)
	note.CurrentVersionID = stringPtr(currentVersionID)
	note.IsPinned = isPinned == 1
	note.IsDeleted = isDeleted == 1

	var err error
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &note, nil
}

// GetByID gets a non-deleted note owned by userID.
func (r *NoteRepo) GetByID(ctx context.Context, noteID, userID string) (*Note, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes n WHERE n.id = ? AND n.user_id = ? AND n.is_deleted = 0",
		noteID, userID,
	)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// Create inserts a note together with version 1 and points the note's current version at it.
// IDs and timestamps are generated when empty.
func (r *NoteRepo) Create(ctx context.Context, note *Note, richContent json.RawMessage, plainText string) (*Version, error) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = note.CreatedAt
	if len(richContent) == 0 {
		richContent = json.RawMessage("[]")
	}

	version := &Version{
		ID:            uuid.New().String(),
		NoteID:        note.ID,
		VersionNumber: 1,
		RichContent:   richContent,
		PlainText:     plainText,
		CreatedAt:     note.CreatedAt,
	}
	note.CurrentVersionID = &version.ID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, folder_id, title, current_version_id, is_pinned, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, 0, ?, ?)`,
		note.ID, note.UserID, nullString(note.FolderID), note.Title, boolToInt(note.IsPinned),
		formatTime(note.CreatedAt), formatTime(note.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO note_versions (id, note_id, version_number, rich_content, plain_text, is_published, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, NULL, ?)`,
		version.ID, version.NoteID, version.VersionNumber, string(version.RichContent), version.PlainText,
		formatTime(version.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE notes SET current_version_id = ? WHERE id = ?", version.ID, note.ID); err != nil {
		return nil, fmt.Errorf("failed to set current version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit note: %w", err)
	}
	return version, nil
}

// SoftDelete marks a note deleted. Returns ErrNotFound if no live note matched.
func (r *NoteRepo) SoftDelete(ctx context.Context, noteID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notes SET is_deleted = 1, updated_at = ? WHERE id = ? AND user_id = ? AND is_deleted = 0",
		formatTime(time.Now()), noteID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchText matches query as a case-insensitive substring of the title or the current
// version's plain text. Both sides fold with strings.ToLower so non-ASCII letters match.
// Results are ordered by most recently updated.
func (r *NoteRepo) SearchText(ctx context.Context, userID, query string, limit int) ([]NoteWithVersion, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+", "+versionColumns+`
		 FROM notes n
		 JOIN note_versions v ON v.id = n.current_version_id
		 WHERE n.user_id = ? AND n.is_deleted = 0
		   AND (ulower(n.title) LIKE ? ESCAPE '\' OR ulower(v.plain_text) LIKE ? ESCAPE '\')
		 ORDER BY n.updated_at DESC, n.id
		 LIMIT ?`,
		userID, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []NoteWithVersion
	for rows.Next() {
		var vs versionScan
		note, err := scanNote(rows, vs.dest()...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		version, err := vs.version()
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		results = append(results, NoteWithVersion{Note: *note, Version: *version})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return results, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
