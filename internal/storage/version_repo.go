package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_version_store.go -package=mocks notebook-ai/internal/storage VersionStore

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

// VersionStore defines the interface for note version operations.
type VersionStore interface {
	// GetByID gets a version by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, versionID string) (*Version, error)
	// UpdatePlainText overwrites the derived plain text of a version.
	UpdatePlainText(ctx context.Context, versionID, plainText string) error
	// Publish marks a version published and opens the next draft version.
	Publish(ctx context.Context, versionID string, at time.Time) (*Version, error)
	// Unpublish clears the published flag of a version.
	Unpublish(ctx context.Context, versionID string) error
	// ListCurrentAndPublished returns the note's current version plus every published version.
	ListCurrentAndPublished(ctx context.Context, noteID string) ([]Version, error)
	// ListIDsByNote returns every version ID of a note.
	ListIDsByNote(ctx context.Context, noteID string) ([]string, error)
	// LatestPublishedByNote returns the latest published version of a note, or nil.
	LatestPublishedByNote(ctx context.Context, noteID string) (*PublishedRef, error)
	// LatestPublishedByFolder returns the latest published version of each live note in a folder.
	LatestPublishedByFolder(ctx context.Context, userID, folderID string) ([]PublishedRef, error)
	// LatestPublishedByUser returns the latest published version of each live note of a user.
	LatestPublishedByUser(ctx context.Context, userID string) ([]PublishedRef, error)
	// ListPublishedByUser returns every published version of each live note of a user.
	ListPublishedByUser(ctx context.Context, userID string) ([]PublishedRef, error)
}

// VersionRepo provides methods for note version operations.
// It implements the VersionStore interface.
type VersionRepo struct {
	db        *sql.DB
	plainText func(json.RawMessage) string
}

// VersionRepoOption configures a VersionRepo.
type VersionRepoOption func(*VersionRepo)

// WithPlainTextDeriver sets the function that derives plain text from rich content.
// Publish uses it to refresh the text of the published version and its draft.
func WithPlainTextDeriver(fn func(json.RawMessage) string) VersionRepoOption {
	return func(r *VersionRepo) {
		r.plainText = fn
	}
}

// NewVersionRepo creates a new VersionRepo.
func NewVersionRepo(db *sql.DB, opts ...VersionRepoOption) *VersionRepo {
	r := &VersionRepo{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const versionColumns = "v.id, v.note_id, v.version_number, v.rich_content, v.plain_text, v.is_published, v.published_at, v.created_at"

// versionScan holds raw column values for one version row.
type versionScan struct {
	v           Version
	richContent string
	isPublished int
	publishedAt sql.NullString
	createdAt   string
}

func (s *versionScan) dest() []any {
	return []any{&s.v.ID, &s.v.NoteID, &s.v.VersionNumber, &s.richContent, &s.v.PlainText, &s.isPublished, &s.publishedAt, &s.createdAt}
}

func (s *versionScan) version() (*Version, error) {
	v := s.v
	v.RichContent = json.RawMessage(s.richContent)
	v.IsPublished = s.isPublished == 1

	var err error
	if v.PublishedAt, err = parseNullTime(s.publishedAt); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseTime(s.createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID gets a version by ID.
func (r *VersionRepo) GetByID(ctx context.Context, versionID string) (*Version, error) {
	var vs versionScan
	err := r.db.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM note_versions v WHERE v.id = ?", versionID,
	).Scan(vs.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query version: %w", err)
	}
	return vs.version()
}

// UpdatePlainText overwrites the derived plain text of a version.
func (r *VersionRepo) UpdatePlainText(ctx context.Context, versionID, plainText string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE note_versions SET plain_text = ? WHERE id = ?", plainText, versionID)
	if err != nil {
		return fmt.Errorf("failed to update plain text: %w", err)
	}
	return requireAffected(res)
}

// Publish marks the version published at the given time, inserts a new draft numbered after
// the note's highest version with the same content, and moves the note's current version to it.
// It always inserts a draft; callers skip versions that are already published.
// With a plain text deriver set, the text of both versions is re-derived from the rich content.
func (r *VersionRepo) Publish(ctx context.Context, versionID string, at time.Time) (*Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var vs versionScan
	err = tx.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM note_versions v WHERE v.id = ?", versionID,
	).Scan(vs.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query version: %w", err)
	}
	published, err := vs.version()
	if err != nil {
		return nil, err
	}

	if r.plainText != nil {
		published.PlainText = r.plainText(published.RichContent)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE note_versions SET is_published = 1, published_at = ?, plain_text = ? WHERE id = ?",
		formatTime(at), published.PlainText, versionID,
	); err != nil {
		return nil, fmt.Errorf("failed to publish version: %w", err)
	}

	var maxNumber int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_number), 0) FROM note_versions WHERE note_id = ?", published.NoteID,
	).Scan(&maxNumber); err != nil {
		return nil, fmt.Errorf("failed to read version numbers: %w", err)
	}

	draft := &Version{
		ID:            uuid.New().String(),
		NoteID:        published.NoteID,
		VersionNumber: maxNumber + 1,
		RichContent:   published.RichContent,
		PlainText:     published.PlainText,
		CreatedAt:     at.UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO note_versions (id, note_id, version_number, rich_content, plain_text, is_published, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, NULL, ?)`,
		draft.ID, draft.NoteID, draft.VersionNumber, string(draft.RichContent), draft.PlainText, formatTime(draft.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("failed to insert draft version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE notes SET current_version_id = ?, updated_at = ? WHERE id = ?",
		draft.ID, formatTime(at), draft.NoteID,
	); err != nil {
		return nil, fmt.Errorf("failed to move current version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit publish: %w", err)
	}
	return draft, nil
}

// Unpublish clears the published flag and timestamp of a version.
func (r *VersionRepo) Unpublish(ctx context.Context, versionID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE note_versions SET is_published = 0, published_at = NULL WHERE id = ?", versionID,
	)
	if err != nil {
		return fmt.Errorf("failed to unpublish version: %w", err)
	}
	return requireAffected(res)
}

// ListCurrentAndPublished returns the note's current version plus all published versions,
// ordered by version number.
func (r *VersionRepo) ListCurrentAndPublished(ctx context.Context, noteID string) ([]Version, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+versionColumns+`
		 FROM note_versions v
		 JOIN notes n ON n.id = v.note_id
		 WHERE v.note_id = ? AND (v.is_published = 1 OR v.id = n.current_version_id)
		 ORDER BY v.version_number`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var versions []Version
	for rows.Next() {
		var vs versionScan
		if err := rows.Scan(vs.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		v, err := vs.version()
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}
	return versions, nil
}

// ListIDsByNote returns every version ID of a note ordered by version number.
func (r *VersionRepo) ListIDsByNote(ctx context.Context, noteID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM note_versions WHERE note_id = ? ORDER BY version_number", noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query version IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan version ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating version IDs: %w", err)
	}
	return ids, nil
}

// latestPublishedQuery ranks published versions per note, newest publication first,
// with the higher version number winning ties.
const latestPublishedQuery = `
SELECT note_id, id FROM (
	SELECT v.note_id, v.id,
		ROW_NUMBER() OVER (PARTITION BY v.note_id ORDER BY v.published_at DESC, v.version_number DESC) AS rn
	FROM note_versions v
	JOIN notes n ON n.id = v.note_id
	WHERE v.is_published = 1 AND v.published_at IS NOT NULL AND n.is_deleted = 0 %s
) ranked
WHERE rn = 1
ORDER BY note_id`

// LatestPublishedByNote returns the latest published version of a note, or nil when it has none.
func (r *VersionRepo) LatestPublishedByNote(ctx context.Context, noteID string) (*PublishedRef, error) {
	refs, err := r.queryRefs(ctx, fmt.Sprintf(latestPublishedQuery, "AND n.id = ?"), noteID)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return &refs[0], nil
}

// LatestPublishedByFolder returns the latest published version of each live note in a folder.
func (r *VersionRepo) LatestPublishedByFolder(ctx context.Context, userID, folderID string) ([]PublishedRef, error) {
	return r.queryRefs(ctx, fmt.Sprintf(latestPublishedQuery, "AND n.user_id = ? AND n.folder_id = ?"), userID, folderID)
}

// LatestPublishedByUser returns the latest published version of each live note of a user.
func (r *VersionRepo) LatestPublishedByUser(ctx context.Context, userID string) ([]PublishedRef, error) {
	return r.queryRefs(ctx, fmt.Sprintf(latestPublishedQuery, "AND n.user_id = ?"), userID)
}

// ListPublishedByUser returns every published version of each live note of a user.
func (r *VersionRepo) ListPublishedByUser(ctx context.Context, userID string) ([]PublishedRef, error) {
	return r.queryRefs(ctx, strings.TrimSpace(`
SELECT v.note_id, v.id
FROM note_versions v
JOIN notes n ON n.id = v.note_id
WHERE v.is_published = 1 AND n.is_deleted = 0 AND n.user_id = ?
ORDER BY v.note_id, v.version_number`), userID)
}

func (r *VersionRepo) queryRefs(ctx context.Context, query string, args ...any) ([]PublishedRef, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query published versions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	refs := []PublishedRef{}
	for rows.Next() {
		var ref PublishedRef
		if err := rows.Scan(&ref.NoteID, &ref.VersionID); err != nil {
			return nil, fmt.Errorf("failed to scan published version: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published versions: %w", err)
	}
	return refs, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
