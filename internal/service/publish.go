package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_publish_service.go -package=mocks -mock_names=PublishService=MockPublishService notebook-ai/internal/service PublishService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_version_indexer.go -package=mocks notebook-ai/internal/service VersionIndexer

import (
	"context"
	"time"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/indexer"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/storage"
)

// VersionPublisher reads and changes the publication state of versions.
type VersionPublisher interface {
	GetByID(ctx context.Context, versionID string) (*storage.Version, error)
	Publish(ctx context.Context, versionID string, at time.Time) (*storage.Version, error)
	Unpublish(ctx context.Context, versionID string) error
}

// NoteOwner checks note ownership and soft-deletes notes.
type NoteOwner interface {
	GetByID(ctx context.Context, noteID, userID string) (*storage.Note, error)
	SoftDelete(ctx context.Context, noteID, userID string) error
}

// VersionIndexer keeps the vector index in step with publication state.
type VersionIndexer interface {
	EmbedVersion(ctx context.Context, userID, versionID string) (indexer.EmbedResult, error)
	RemoveVersion(ctx context.Context, userID, versionID string) (int, error)
	RemoveNote(ctx context.Context, userID, noteID string) (int, error)
}

// PublishResult describes a publish and the embedding it triggered.
type PublishResult struct {
	VersionID      string
	DraftVersionID string // empty when the version was already published
	Chunks         int
	Removed        int
	Usage          llm.Usage
	// EmbedError is set when the version was published but could not be embedded.
	// The publish is kept; embedding can be retried by publishing again.
	EmbedError error
}

// UnpublishResult describes an unpublish.
type UnpublishResult struct {
	VersionID string
	Removed   int
}

// PublishService applies publication changes and their indexing side effects.
type PublishService interface {
	// Publish publishes a version and embeds it.
	Publish(ctx context.Context, userID, versionID string) (PublishResult, error)
	// Unpublish unpublishes a version and removes its chunks.
	Unpublish(ctx context.Context, userID, versionID string) (UnpublishResult, error)
	// DeleteNote soft-deletes a note and removes the chunks of all its versions.
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// publishService implements PublishService.
type publishService struct {
	versions VersionPublisher
	notes    NoteOwner
	indexer  VersionIndexer
	now      func() time.Time
}

// NewPublishService creates a new PublishService.
func NewPublishService(versions VersionPublisher, notes NoteOwner, idx VersionIndexer) PublishService {
	return &publishService{
		versions: versions,
		notes:    notes,
		indexer:  idx,
		now:      time.Now,
	}
}

// ownedVersion loads a version and checks that its note belongs to userID.
func (s *publishService) ownedVersion(ctx context.Context, userID, versionID string) (*storage.Version, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if versionID == "" {
		return nil, &ValidationError{Field: "version_id", Message: "cannot be empty"}
	}

	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, translateError(err, "failed to load version", ErrInternal)
	}
	if _, err := s.notes.GetByID(ctx, version.NoteID, userID); err != nil {
		return nil, translateError(err, "failed to load note", ErrInternal)
	}
	return version, nil
}

// Publish publishes a version. Publishing an already published version only re-embeds it.
func (s *publishService) Publish(ctx context.Context, userID, versionID string) (PublishResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	version, err := s.ownedVersion(ctx, userID, versionID)
	if err != nil {
		return PublishResult{}, err
	}

	result := PublishResult{VersionID: version.ID}
	if !version.IsPublished {
		draft, err := s.versions.Publish(ctx, version.ID, s.now().UTC())
		if err != nil {
			return PublishResult{}, translateError(err, "failed to publish version", ErrInternal)
		}
		result.DraftVersionID = draft.ID
		logger.InfoContext(ctx, "version published", "version_id", version.ID, "note_id", version.NoteID, "draft_version_id", draft.ID)
	}

	embedded, err := s.indexer.EmbedVersion(ctx, userID, version.ID)
	result.Usage = embedded.Usage
	if err != nil {
		logger.WarnContext(ctx, "published version could not be embedded", "version_id", version.ID, "error", err)
		result.EmbedError = translateError(err, "failed to embed version", ErrExternalService)
		return result, nil
	}
	result.Chunks = embedded.Chunks
	result.Removed = embedded.Removed
	return result, nil
}

// Unpublish unpublishes a version and deletes its chunks.
func (s *publishService) Unpublish(ctx context.Context, userID, versionID string) (UnpublishResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	version, err := s.ownedVersion(ctx, userID, versionID)
	if err != nil {
		return UnpublishResult{}, err
	}
	if !version.IsPublished {
		return UnpublishResult{}, &ValidationError{Field: "version_id", Message: "version is not published"}
	}

	if err := s.versions.Unpublish(ctx, version.ID); err != nil {
		return UnpublishResult{}, translateError(err, "failed to unpublish version", ErrInternal)
	}

	removed, err := s.indexer.RemoveVersion(ctx, userID, version.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove chunks of unpublished version", "version_id", version.ID, "error", err)
		return UnpublishResult{VersionID: version.ID}, translateError(err, "failed to remove chunks", ErrExternalService)
	}

	logger.InfoContext(ctx, "version unpublished", "version_id", version.ID, "removed", removed)
	return UnpublishResult{VersionID: version.ID, Removed: removed}, nil
}

// DeleteNote soft-deletes a note and removes its chunks.
func (s *publishService) DeleteNote(ctx context.Context, userID, noteID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if userID == "" {
		return &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if noteID == "" {
		return &ValidationError{Field: "note_id", Message: "cannot be empty"}
	}

	if err := s.notes.SoftDelete(ctx, noteID, userID); err != nil {
		return translateError(err, "failed to delete note", ErrInternal)
	}

	removed, err := s.indexer.RemoveNote(ctx, userID, noteID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove chunks of deleted note", "note_id", noteID, "error", err)
		return translateError(err, "failed to remove chunks", ErrExternalService)
	}

	logger.InfoContext(ctx, "note deleted", "note_id", noteID, "removed", removed)
	return nil
}
