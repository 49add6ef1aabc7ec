package vault

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook-ai/internal/service"
	"notebook-ai/internal/storage"
)

type fakePublisher struct {
	calls    []string
	embedErr error
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, _, versionID string) (service.PublishResult, error) {
	f.calls = append(f.calls, versionID)
	if f.err != nil {
		return service.PublishResult{}, f.err
	}
	if f.embedErr != nil {
		return service.PublishResult{VersionID: versionID, EmbedError: f.embedErr}, nil
	}
	return service.PublishResult{VersionID: versionID, Chunks: 2}, nil
}

type importFixture struct {
	notes    *storage.NoteRepo
	folders  *storage.FolderRepo
	versions *storage.VersionRepo
}

func newImportFixture(t *testing.T) importFixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, storage.Migrate(db))
	return importFixture{
		notes:    storage.NewNoteRepo(db),
		folders:  storage.NewFolderRepo(db),
		versions: storage.NewVersionRepo(db),
	}
}

func writeVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "inbox.md", "# Inbox\n\nCall the plumber.\n")
	writeFile(t, root, "projects/garden.md", "Plant tomatoes in May.\n")
	writeFile(t, root, "projects/shed.md", "# Shed\n\nBuy screws.\n")
	writeFile(t, root, "empty.md", "\n\n")
	return root
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	fx := newImportFixture(t)
	root := writeVault(t)

	im := NewImporter(fx.notes, fx.folders, nil)
	result, err := im.Import(ctx, "user-1", root, false)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Scanned)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Published)
	assert.Equal(t, []string{"empty.md"}, result.SkippedEmpty)
	require.Len(t, result.NoteIDs, 3)

	// Files are imported in path order: inbox, projects/garden, projects/shed.
	inbox, err := fx.notes.GetByID(ctx, result.NoteIDs[0], "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Inbox", inbox.Title)
	assert.Nil(t, inbox.FolderID)

	garden, err := fx.notes.GetByID(ctx, result.NoteIDs[1], "user-1")
	require.NoError(t, err)
	assert.Equal(t, "garden", garden.Title)
	require.NotNil(t, garden.FolderID)

	shed, err := fx.notes.GetByID(ctx, result.NoteIDs[2], "user-1")
	require.NoError(t, err)
	require.NotNil(t, shed.FolderID)
	assert.Equal(t, *garden.FolderID, *shed.FolderID, "notes in one directory share a folder")

	folder, err := fx.folders.GetByID(ctx, *garden.FolderID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "projects", folder.Name)

	require.NotNil(t, shed.CurrentVersionID)
	version, err := fx.versions.GetByID(ctx, *shed.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, "Shed\nBuy screws.", version.PlainText)
	assert.False(t, version.IsPublished)
}

func TestImporter_ImportPublish(t *testing.T) {
	ctx := context.Background()
	fx := newImportFixture(t)
	root := writeVault(t)

	pub := &fakePublisher{}
	im := NewImporter(fx.notes, fx.folders, pub)
	result, err := im.Import(ctx, "user-1", root, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Published)
	assert.Equal(t, 6, result.Chunks)
	assert.Equal(t, 0, result.EmbedFailed)
	assert.Len(t, pub.calls, 3)
}

func TestImporter_ImportEmbedFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	fx := newImportFixture(t)
	root := writeVault(t)

	pub := &fakePublisher{embedErr: service.ErrRateLimited}
	im := NewImporter(fx.notes, fx.folders, pub)
	result, err := im.Import(ctx, "user-1", root, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Published)
	assert.Equal(t, 3, result.EmbedFailed)
	assert.Equal(t, 0, result.Chunks)
}

func TestImporter_ImportErrors(t *testing.T) {
	ctx := context.Background()
	fx := newImportFixture(t)
	root := writeVault(t)

	t.Run("missing user", func(t *testing.T) {
		_, err := NewImporter(fx.notes, fx.folders, nil).Import(ctx, "", root, false)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("publish without publisher", func(t *testing.T) {
		_, err := NewImporter(fx.notes, fx.folders, nil).Import(ctx, "user-1", root, true)
		assert.Error(t, err)
	})

	t.Run("publish failure stops import", func(t *testing.T) {
		boom := errors.New("boom")
		pub := &fakePublisher{err: boom}
		result, err := NewImporter(fx.notes, fx.folders, pub).Import(ctx, "user-2", root, true)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, result.Imported)
		assert.Len(t, pub.calls, 1)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := NewImporter(fx.notes, fx.folders, nil).Import(ctx, "user-1", filepath.Join(root, "nope"), false)
		assert.Error(t, err)
	})
}
