package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"notebook-ai/internal/config"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/storage"
)

func init() {
	slog.SetDefault(slog.New(slog.DiscardHandler))
}

// testEnv is a seeded database plus a fake embeddings server.
type testEnv struct {
	cfg         *config.Config
	noteID      string
	publishedID string
	draftID     string
	rateLimited *atomic.Bool
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rateLimited := &atomic.Bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rateLimited.Load() {
			http.Error(w, `{"error":{"message":"rate limit exceeded"}}`, http.StatusTooManyRequests)
			return
		}
		var req llm.EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := llm.EmbeddingsResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, llm.EmbeddingData{Index: i, Embedding: []float64{1, 0, 0, 0}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		LLMBaseURL:          server.URL,
		EmbeddingBaseURL:    server.URL,
		EmbeddingModelName:  "test-embed",
		EmbeddingVectorSize: 4,
		DBPath:              filepath.Join(t.TempDir(), "notes.db"),
		VectorBackend:       config.VectorBackendMemory,
		ChunkSize:           500,
		ChunkOverlap:        50,
		SearchTopK:          20,
		AgentTopK:           5,
		AgentMaxSteps:       4,
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	ctx := context.Background()
	rich := json.RawMessage(`[{"type":"paragraph","content":[{"type":"text","text":"Sourdough needs a ripe starter."}]}]`)
	note := &storage.Note{UserID: "user-1", Title: "Sourdough"}
	version, err := storage.NewNoteRepo(db).Create(ctx, note, rich, "")
	if err != nil {
		t.Fatalf("failed to create note: %v", err)
	}
	draft, err := storage.NewVersionRepo(db).Publish(ctx, version.ID, time.Now())
	if err != nil {
		t.Fatalf("failed to publish version: %v", err)
	}

	return &testEnv{
		cfg:         cfg,
		noteID:      note.ID,
		publishedID: version.ID,
		draftID:     draft.ID,
		rateLimited: rateLimited,
	}
}

// run executes the CLI and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCLIApp(e.cfg, &out).Run(append([]string{"notesctl"}, args...))
	return out.String(), err
}

func (e *testEnv) stats(t *testing.T) map[string]any {
	t.Helper()
	out, err := e.run(t, "stats", "--user", "user-1")
	if err != nil {
		t.Fatalf("stats command failed: %v", err)
	}
	var stats map[string]any
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	return stats
}

func TestCLIMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	var out bytes.Buffer
	err := newCLIApp(&config.Config{DBPath: dbPath}, &out).Run([]string{"notesctl", "migrate"})
	if err != nil {
		t.Fatalf("migrate command failed: %v", err)
	}
	if !strings.Contains(out.String(), `"migrated"`) {
		t.Errorf("unexpected output: %s", out.String())
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestCLIEmbedAndUnembed(t *testing.T) {
	env := setupTestEnv(t)

	out, err := env.run(t, "embed", "--user", "user-1", "--version", env.publishedID)
	if err != nil {
		t.Fatalf("embed command failed: %v", err)
	}
	var result struct {
		VersionID string `json:"version_id"`
		Chunks    int    `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if result.VersionID != env.publishedID || result.Chunks != 1 {
		t.Errorf("embed output = %+v", result)
	}

	stats := env.stats(t)
	if stats["chunks_embedded"] != float64(1) || stats["published_versions"] != float64(1) {
		t.Errorf("stats after embed = %v", stats)
	}

	if _, err := env.run(t, "unembed", "--user", "user-1", "--version", env.publishedID); err != nil {
		t.Fatalf("unembed command failed: %v", err)
	}
	if stats := env.stats(t); stats["chunks_embedded"] != float64(0) {
		t.Errorf("stats after unembed = %v", stats)
	}
}

func TestCLIErrors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		setup   func()
		wantErr string
	}{
		{
			name:    "embed draft",
			args:    []string{"embed", "--user", "user-1", "--version", env.draftID},
			wantErr: "[invalid_input]",
		},
		{
			name:    "embed other user's version",
			args:    []string{"embed", "--user", "user-2", "--version", env.publishedID},
			wantErr: "[not_found]",
		},
		{
			name:    "unembed unknown version",
			args:    []string{"unembed", "--user", "user-1", "--version", "missing"},
			wantErr: "[not_found]",
		},
		{
			name:    "missing user flag",
			args:    []string{"stats"},
			wantErr: "user",
		},
		{
			name:    "folder scope without id",
			args:    []string{"chat", "--user", "user-1", "--message", "hi", "--scope-kind", "folder"},
			wantErr: "folder scope requires an id",
		},
		{
			name:    "rate limited",
			args:    []string{"embed", "--user", "user-1", "--version", env.publishedID},
			setup:   func() { env.rateLimited.Store(true) },
			wantErr: "try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := env.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCLISearchFallback(t *testing.T) {
	env := setupTestEnv(t)

	out, err := env.run(t, "search", "--user", "user-1", "--query", "sourdough")
	if err != nil {
		t.Fatalf("search command failed: %v", err)
	}
	var result struct {
		NumResults    int `json:"num_results"`
		SearchResults []struct {
			Note struct {
				ID string `json:"id"`
			} `json:"note"`
		} `json:"search_results"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if result.NumResults != 1 || result.SearchResults[0].Note.ID != env.noteID {
		t.Errorf("search output = %+v", result)
	}
}

func TestCLIImport(t *testing.T) {
	env := setupTestEnv(t)

	dir := t.TempDir()
	files := map[string]string{
		"bread.md":         "# Bread\n\nKnead for ten minutes.\n",
		"garden/herbs.md":  "Basil likes sun.\n",
		".obsidian/app.md": "ignored",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	out, err := env.run(t, "import", "--user", "user-1", "--dir", dir, "--publish")
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}
	var result struct {
		Scanned     int      `json:"scanned"`
		Imported    int      `json:"imported"`
		Published   int      `json:"published"`
		Chunks      int      `json:"chunks"`
		EmbedFailed int      `json:"embed_failed"`
		NoteIDs     []string `json:"note_ids"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if result.Scanned != 2 || result.Imported != 2 || result.Published != 2 || result.Chunks != 2 || result.EmbedFailed != 0 {
		t.Errorf("import output = %+v", result)
	}

	stats := env.stats(t)
	if stats["chunks_embedded"] != float64(2) || stats["published_versions"] != float64(3) {
		t.Errorf("stats after import = %v", stats)
	}

	env.rateLimited.Store(true)
	out, err = env.run(t, "import", "--user", "user-1", "--dir", dir, "--publish")
	if err != nil {
		t.Fatalf("rate limited import should still succeed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if result.Published != 2 || result.EmbedFailed != 2 || result.Chunks != 0 {
		t.Errorf("rate limited import output = %+v", result)
	}
}
