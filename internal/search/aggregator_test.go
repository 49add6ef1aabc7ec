package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook-ai/internal/storage"
	"notebook-ai/internal/vectorstore"
)

type fakeStore struct {
	notes    map[string]*storage.Note
	folders  map[string]*storage.Folder
	versions map[string][]storage.Version
	noteErr  error
}

func (f *fakeStore) noteLookup() NoteLookup       { return noteLookupFunc(f.getNote) }
func (f *fakeStore) folderLookup() FolderLookup   { return folderLookupFunc(f.getFolder) }
func (f *fakeStore) versionLookup() VersionLookup { return versionLookupFunc(f.listVersions) }

func (f *fakeStore) getNote(ctx context.Context, noteID, userID string) (*storage.Note, error) {
	if f.noteErr != nil {
		return nil, f.noteErr
	}
	n, ok := f.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) getFolder(ctx context.Context, folderID, userID string) (*storage.Folder, error) {
	folder, ok := f.folders[folderID]
	if !ok || folder.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return folder, nil
}

func (f *fakeStore) listVersions(ctx context.Context, noteID string) ([]storage.Version, error) {
	return f.versions[noteID], nil
}

type noteLookupFunc func(ctx context.Context, noteID, userID string) (*storage.Note, error)

func (fn noteLookupFunc) GetByID(ctx context.Context, noteID, userID string) (*storage.Note, error) {
	return fn(ctx, noteID, userID)
}

type folderLookupFunc func(ctx context.Context, folderID, userID string) (*storage.Folder, error)

func (fn folderLookupFunc) GetByID(ctx context.Context, folderID, userID string) (*storage.Folder, error) {
	return fn(ctx, folderID, userID)
}

type versionLookupFunc func(ctx context.Context, noteID string) ([]storage.Version, error)

func (fn versionLookupFunc) ListCurrentAndPublished(ctx context.Context, noteID string) ([]storage.Version, error) {
	return fn(ctx, noteID)
}

func strPtr(s string) *string { return &s }

// newFakeStore holds note A (versions a1 published, a2 published, a3 current draft)
// and note B (b1 published, b2 current draft) in folder f-1.
func newFakeStore() *fakeStore {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &fakeStore{
		notes: map[string]*storage.Note{
			"A": {ID: "A", UserID: "u", Title: "Stew", CurrentVersionID: strPtr("a3")},
			"B": {ID: "B", UserID: "u", Title: "Soup", FolderID: strPtr("f-1"), CurrentVersionID: strPtr("b2")},
		},
		folders: map[string]*storage.Folder{
			"f-1": {ID: "f-1", UserID: "u", Name: "Recipes"},
		},
		versions: map[string][]storage.Version{
			"A": {
				{ID: "a1", NoteID: "A", VersionNumber: 1, IsPublished: true, PublishedAt: &published},
				{ID: "a2", NoteID: "A", VersionNumber: 2, IsPublished: true, PublishedAt: &published},
				{ID: "a3", NoteID: "A", VersionNumber: 3},
			},
			"B": {
				{ID: "b1", NoteID: "B", VersionNumber: 1, IsPublished: true, PublishedAt: &published},
				{ID: "b2", NoteID: "B", VersionNumber: 2},
			},
		},
	}
}

func (f *fakeStore) aggregator() *Aggregator {
	return NewAggregator(f.noteLookup(), f.folderLookup(), f.versionLookup())
}

func TestAggregator_DisplaysCurrentVersionEvenWithLowerScore(t *testing.T) {
	store := newFakeStore()

	hits := []vectorstore.Hit{
		{ID: "h1", NoteID: "A", VersionID: "a1", Score: 0.9, Text: "old stew recipe"},
		{ID: "h2", NoteID: "A", VersionID: "a3", Score: 0.4, Text: "current stew recipe"},
		{ID: "h3", NoteID: "A", VersionID: "a2", Score: 0.7, Text: "middle stew recipe"},
	}

	results, err := store.aggregator().Aggregate(context.Background(), hits, "u")
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "a3", got.DisplayedVersion.ID)
	assert.Equal(t, float32(0.4), got.Score)
	assert.Equal(t, "current stew recipe", got.DisplayedVersion.Preview)
	require.Len(t, got.AdditionalVersions, 2)
	assert.Equal(t, "a1", got.AdditionalVersions[0].ID)
	assert.Equal(t, "a2", got.AdditionalVersions[1].ID)
}

func TestAggregator_DisplaysBestWhenCurrentAbsent(t *testing.T) {
	store := newFakeStore()

	hits := []vectorstore.Hit{
		{ID: "h1", NoteID: "A", VersionID: "a1", Score: 0.5},
		{ID: "h2", NoteID: "A", VersionID: "a2", Score: 0.8, Text: "best"},
	}

	results, err := store.aggregator().Aggregate(context.Background(), hits, "u")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a2", results[0].DisplayedVersion.ID)
	assert.Equal(t, float32(0.8), results[0].Score)
	require.Len(t, results[0].AdditionalVersions, 1)
	assert.Equal(t, "a1", results[0].AdditionalVersions[0].ID)
}

func TestAggregator_GroupsAndOrdersNotes(t *testing.T) {
	store := newFakeStore()

	hits := []vectorstore.Hit{
		{ID: "h1", NoteID: "A", VersionID: "a1", Score: 0.6, Text: "weaker chunk"},
		{ID: "h2", NoteID: "B", VersionID: "b1", Score: 0.95, Text: "soup"},
		{ID: "h3", NoteID: "A", VersionID: "a1", Score: 0.7, Text: "stronger chunk"},
	}

	results, err := store.aggregator().Aggregate(context.Background(), hits, "u")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "B", results[0].Note.ID)
	assert.Equal(t, "Recipes", results[0].FolderName)
	assert.Equal(t, "f-1", *results[0].FolderID)

	a := results[1]
	assert.Equal(t, "A", a.Note.ID)
	assert.Nil(t, a.FolderID)
	assert.Equal(t, "a1", a.DisplayedVersion.ID)
	assert.Equal(t, float32(0.7), a.DisplayedVersion.Score, "several hits of one version keep the best score")
	assert.Equal(t, "stronger chunk", a.DisplayedVersion.Preview)
	assert.Empty(t, a.AdditionalVersions)
	assert.NotNil(t, a.AdditionalVersions)
	assert.True(t, a.DisplayedVersion.IsPublished)
	assert.NotNil(t, a.DisplayedVersion.PublishedAt)
}

func TestAggregator_StableOrderForEqualScores(t *testing.T) {
	store := newFakeStore()

	hits := []vectorstore.Hit{
		{ID: "h1", NoteID: "B", VersionID: "b1", Score: 0.5},
		{ID: "h2", NoteID: "A", VersionID: "a1", Score: 0.5},
	}

	results, err := store.aggregator().Aggregate(context.Background(), hits, "u")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].Note.ID)
	assert.Equal(t, "A", results[1].Note.ID)
}

func TestAggregator_Empty(t *testing.T) {
	results, err := newFakeStore().aggregator().Aggregate(context.Background(), nil, "u")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAggregator_Inconsistency(t *testing.T) {
	tests := []struct {
		name string
		hits []vectorstore.Hit
	}{
		{name: "unknown note", hits: []vectorstore.Hit{{ID: "h", NoteID: "Z", VersionID: "z1", Score: 1}}},
		{name: "note of another user", hits: []vectorstore.Hit{{ID: "h", NoteID: "A", VersionID: "a1", Score: 1}}},
		{name: "unknown version", hits: []vectorstore.Hit{{ID: "h", NoteID: "A", VersionID: "gone", Score: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			userID := "u"
			if tt.name == "note of another user" {
				userID = "other"
			}
			_, err := store.aggregator().Aggregate(context.Background(), tt.hits, userID)
			assert.True(t, errors.Is(err, ErrDataInconsistency), "got %v", err)
		})
	}
}

func TestAggregator_LookupFailure(t *testing.T) {
	store := newFakeStore()
	store.noteErr = errors.New("database is locked")

	_, err := store.aggregator().Aggregate(context.Background(), []vectorstore.Hit{{NoteID: "A", VersionID: "a1"}}, "u")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDataInconsistency))
}

func TestAggregator_MissingFolderIsTolerated(t *testing.T) {
	store := newFakeStore()
	delete(store.folders, "f-1")

	results, err := store.aggregator().Aggregate(context.Background(), []vectorstore.Hit{{NoteID: "B", VersionID: "b1", Score: 1}}, "u")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "", results[0].FolderName)
}
