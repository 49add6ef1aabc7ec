package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"notebook-ai/internal/llm"
	rag_mocks "notebook-ai/internal/rag/mocks"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/search"
	"notebook-ai/internal/service"
	"notebook-ai/internal/storage"
	storage_mocks "notebook-ai/internal/storage/mocks"
	"notebook-ai/internal/vectorstore"
)

type searchFixture struct {
	notes    *storage.NoteRepo
	folders  *storage.FolderRepo
	versions *storage.VersionRepo
	chunks   *storage.ChunkRepo
	vectors  *vectorstore.MemoryStore
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	return &searchFixture{
		notes:    storage.NewNoteRepo(db),
		folders:  storage.NewFolderRepo(db),
		versions: storage.NewVersionRepo(db),
		chunks:   storage.NewChunkRepo(db),
		vectors:  vectorstore.NewMemoryStore(),
	}
}

func (f *searchFixture) service(embedder service.QueryEmbedder, topK int) service.SearchService {
	return service.NewSearchService(
		f.chunks,
		embedder,
		f.vectors,
		scope.NewResolver(f.notes, f.folders, f.versions),
		search.NewAggregator(f.notes, f.folders, f.versions),
		search.NewTextSearcher(f.notes, f.folders),
		topK,
	)
}

// publish creates a note, publishes its first version and stores one chunk for it.
func (f *searchFixture) publish(t *testing.T, userID, title, text string, vector []float32) (*storage.Note, string) {
	t.Helper()
	ctx := context.Background()

	note := &storage.Note{UserID: userID, Title: title}
	version, err := f.notes.Create(ctx, note, json.RawMessage(`[]`), text)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.versions.Publish(ctx, version.ID, time.Now()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	f.embed(t, userID, note.ID, version.ID, text, vector)
	return note, version.ID
}

func (f *searchFixture) embed(t *testing.T, userID, noteID, versionID, text string, vector []float32) {
	t.Helper()
	ctx := context.Background()

	id := "chunk-" + versionID
	if _, err := f.chunks.ReplaceForVersion(ctx, versionID, []*storage.ChunkRecord{
		{ID: id, UserID: userID, NoteID: noteID, VersionID: versionID, Text: text},
	}); err != nil {
		t.Fatalf("ReplaceForVersion() error = %v", err)
	}
	if _, err := f.vectors.ReplaceVersion(ctx, userID, versionID, []vectorstore.Chunk{
		{ID: id, NoteID: noteID, VersionID: versionID, Text: text, Vector: vector},
	}); err != nil {
		t.Fatalf("ReplaceVersion() error = %v", err)
	}
}

func TestSearchService_Search_Semantic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	stew, _ := f.publish(t, "user-1", "Stew", "lamb stew with barley", []float32{1, 0})
	soup, _ := f.publish(t, "user-1", "Soup", "tomato soup", []float32{0.6, 0.8})
	f.publish(t, "user-2", "Other stew", "not visible", []float32{1, 0})

	embedder := rag_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedText(gomock.Any(), "stew").Return([]float32{1, 0}, llm.Usage{EmbeddingTokens: 1}, nil)

	result, err := f.service(embedder, 0).Search(testContext(), service.SearchRequest{UserID: "user-1", Query: " stew "})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Query != "stew" {
		t.Errorf("Search() query = %q, want %q", result.Query, "stew")
	}
	if result.NumResults != 2 || len(result.SearchResults) != 2 {
		t.Fatalf("Search() results = %d, want 2", result.NumResults)
	}
	if result.SearchResults[0].Note.ID != stew.ID || result.SearchResults[1].Note.ID != soup.ID {
		t.Errorf("Search() order = [%s %s], want [%s %s]",
			result.SearchResults[0].Note.ID, result.SearchResults[1].Note.ID, stew.ID, soup.ID)
	}
	if result.SearchResults[0].Score <= result.SearchResults[1].Score {
		t.Error("Search() results should be sorted by score")
	}
}

func TestSearchService_Search_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	ctx := context.Background()

	note, v1 := f.publish(t, "user-1", "Stew", "first stew", []float32{1, 0})
	current, err := f.notes.GetByID(ctx, note.ID, "user-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	v2 := *current.CurrentVersionID
	if _, err := f.versions.Publish(ctx, v2, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	f.embed(t, "user-1", note.ID, v2, "second stew", []float32{0.9, 0.1})

	embedder := rag_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedText(gomock.Any(), "stew").Return([]float32{1, 0}, llm.Usage{}, nil).Times(2)
	svc := f.service(embedder, 0)

	latest, err := svc.Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "stew"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if latest.NumResults != 1 || latest.SearchResults[0].DisplayedVersion.ID != v2 {
		t.Fatalf("Search() should only see the latest published version %s, got %+v", v2, latest.SearchResults)
	}
	if len(latest.SearchResults[0].AdditionalVersions) != 0 {
		t.Errorf("Search() additional versions = %d, want 0", len(latest.SearchResults[0].AdditionalVersions))
	}

	history, err := svc.Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "stew", History: true})
	if err != nil {
		t.Fatalf("Search() history error = %v", err)
	}
	if history.NumResults != 1 {
		t.Fatalf("Search() history results = %d, want 1 note", history.NumResults)
	}
	got := history.SearchResults[0]
	if got.DisplayedVersion.ID != v1 {
		t.Errorf("history displayed version = %s, want best scoring %s", got.DisplayedVersion.ID, v1)
	}
	if len(got.AdditionalVersions) != 1 || got.AdditionalVersions[0].ID != v2 {
		t.Errorf("history additional versions = %+v, want [%s]", got.AdditionalVersions, v2)
	}
}

func TestSearchService_Search_FallsBackToText(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	note := &storage.Note{UserID: "user-1", Title: "Beef stew"}
	if _, err := f.notes.Create(context.Background(), note, json.RawMessage(`[]`), "simmer slowly"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// No chunks: the embedder must not be called.
	embedder := rag_mocks.NewMockEmbedder(ctrl)

	result, err := f.service(embedder, 0).Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "STEW"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.NumResults != 1 {
		t.Fatalf("Search() results = %d, want 1", result.NumResults)
	}
	if result.SearchResults[0].Score != 1 {
		t.Errorf("text search score = %v, want 1", result.SearchResults[0].Score)
	}
}

func TestSearchService_Search_FallsBackWhenVectorStoreEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	note, _ := f.publish(t, "user-1", "Beef stew", "simmer slowly", []float32{1, 0})

	// A restarted process keeps the chunk ledger but starts with no vectors.
	f.vectors = vectorstore.NewMemoryStore()

	// The embedder must not be called.
	embedder := rag_mocks.NewMockEmbedder(ctrl)

	result, err := f.service(embedder, 0).Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "Stew"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.NumResults != 1 || result.SearchResults[0].Note.ID != note.ID {
		t.Fatalf("Search() = %+v, want the stew note from text search", result)
	}
	if result.SearchResults[0].Score != 1 {
		t.Errorf("text search score = %v, want 1", result.SearchResults[0].Score)
	}
}

func TestSearchService_Search_NothingPublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	note, _ := f.publish(t, "user-1", "Stew", "stew", []float32{1, 0})
	if err := f.notes.SoftDelete(context.Background(), note.ID, "user-1"); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	embedder := rag_mocks.NewMockEmbedder(ctrl)

	result, err := f.service(embedder, 0).Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "stew"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.NumResults != 0 || result.SearchResults == nil {
		t.Errorf("Search() = %+v, want empty non-nil results", result)
	}
}

func TestSearchService_Search_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	f.publish(t, "user-1", "Stew", "stew", []float32{1, 0})

	tests := []struct {
		name    string
		req     service.SearchRequest
		setup   func(*rag_mocks.MockEmbedder)
		wantErr error
	}{
		{
			name:    "empty query",
			req:     service.SearchRequest{UserID: "user-1", Query: "  "},
			setup:   func(*rag_mocks.MockEmbedder) {},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "missing user",
			req:     service.SearchRequest{Query: "stew"},
			setup:   func(*rag_mocks.MockEmbedder) {},
			wantErr: service.ErrInvalidInput,
		},
		{
			name: "rate limited embedding",
			req:  service.SearchRequest{UserID: "user-1", Query: "stew"},
			setup: func(m *rag_mocks.MockEmbedder) {
				m.EXPECT().EmbedText(gomock.Any(), "stew").Return(nil, llm.Usage{}, llm.ErrRateLimited)
			},
			wantErr: service.ErrRateLimited,
		},
		{
			name: "embedding failure",
			req:  service.SearchRequest{UserID: "user-1", Query: "stew"},
			setup: func(m *rag_mocks.MockEmbedder) {
				m.EXPECT().EmbedText(gomock.Any(), "stew").Return(nil, llm.Usage{}, errors.New("bad gateway"))
			},
			wantErr: service.ErrExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := rag_mocks.NewMockEmbedder(ctrl)
			tt.setup(embedder)

			_, err := f.service(embedder, 0).Search(testContext(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchService_Search_IgnoresVectorsOutOfScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	note, versionID := f.publish(t, "user-1", "Stew", "stew", []float32{1, 0})
	// A stray vector pointing at a version the relational store does not know.
	if err := f.vectors.Upsert(context.Background(), "user-1", []vectorstore.Chunk{
		{ID: "stray", NoteID: note.ID, VersionID: "ghost", Vector: []float32{1, 0}},
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	embedder := rag_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedText(gomock.Any(), "stew").Return([]float32{1, 0}, llm.Usage{}, nil)

	// Only the published version is in scope, so the stray vector is filtered out.
	result, err := f.service(embedder, 0).Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "stew"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.NumResults != 1 || result.SearchResults[0].DisplayedVersion.ID != versionID {
		t.Errorf("Search() = %+v, want only version %s", result, versionID)
	}
}

func TestSearchService_Search_CountFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSearchFixture(t)
	chunks := storage_mocks.NewMockChunkStore(ctrl)
	chunks.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, errors.New("database is locked"))

	svc := service.NewSearchService(
		chunks,
		rag_mocks.NewMockEmbedder(ctrl),
		f.vectors,
		scope.NewResolver(f.notes, f.folders, f.versions),
		search.NewAggregator(f.notes, f.folders, f.versions),
		search.NewTextSearcher(f.notes, f.folders),
		5,
	)

	_, err := svc.Search(testContext(), service.SearchRequest{UserID: "user-1", Query: "stew"})
	if !errors.Is(err, service.ErrInternal) {
		t.Errorf("Search() error = %v, want ErrInternal", err)
	}
}
