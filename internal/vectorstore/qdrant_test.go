package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
		wantTLS  bool
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "https enables TLS",
			urlStr:   "https://cloud.example.com:6333",
			wantHost: "cloud.example.com",
			wantPort: 6334,
			wantTLS:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, useTLS, err := grpcEndpoint(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcEndpoint() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcEndpoint() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
			if useTLS != tt.wantTLS {
				t.Errorf("TLS = %v, want %v", useTLS, tt.wantTLS)
			}
		})
	}
}

func TestNewQdrantStore_InvalidConfig(t *testing.T) {
	if _, err := NewQdrantStore(QdrantConfig{URL: "://invalid", VectorSize: 4}); err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
	if _, err := NewQdrantStore(QdrantConfig{URL: "http://localhost:6333"}); err == nil {
		t.Error("NewQdrantStore() without vector size should return error")
	}
}

func TestQdrantStore_CollectionName(t *testing.T) {
	store := &QdrantStore{prefix: "notes"}
	if got := store.CollectionName("user-1"); got != "notes_user-1" {
		t.Errorf("CollectionName() = %q, want notes_user-1", got)
	}
	if got := store.CollectionName("a/b"); got != "notes_a_b" {
		t.Errorf("CollectionName() = %q, want notes_a_b", got)
	}
}

// The following cases return before the client is touched, so no server is needed.

func TestQdrantStore_Upsert_EmptyChunks(t *testing.T) {
	store := &QdrantStore{prefix: "notes"}
	if err := store.Upsert(context.Background(), "user-1", nil); err != nil {
		t.Errorf("Upsert() with no chunks should return early without error, got: %v", err)
	}
}

func TestQdrantStore_Query_ShortCircuits(t *testing.T) {
	store := &QdrantStore{prefix: "notes"}
	ctx := context.Background()

	if _, err := store.Query(ctx, "user-1", []float32{1}, 0, Filter{}); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("Query() topK=0 error = %v, want ErrInvalidTopK", err)
	}

	hits, err := store.Query(ctx, "user-1", []float32{1}, 5, VersionIn())
	if err != nil {
		t.Fatalf("Query() empty filter error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Query() empty filter returned %d hits", len(hits))
	}

	if _, err := store.Query(ctx, "user-1", []float32{1}, 5, Filter{Must: []FieldIn{{Field: "chunk_text", Values: []string{"x"}}}}); err == nil {
		t.Error("Query() should reject unsupported filter fields")
	}
}

func TestQdrantStore_ReplaceVersion_RejectsForeignChunks(t *testing.T) {
	store := &QdrantStore{prefix: "notes"}
	_, err := store.ReplaceVersion(context.Background(), "user-1", "v1", []Chunk{{ID: "c", VersionID: "v2"}})
	if err == nil {
		t.Error("ReplaceVersion() should reject chunks of another version")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	chunk := Chunk{ID: "c1", NoteID: "n1", VersionID: "v1", FolderID: "f1", ChunkIndex: 3, Text: "hello"}

	payload := qdrant.NewValueMap(chunkPayload("user-1", chunk))
	meta := convertPayloadToMap(payload)
	hit := hitFromPayload(meta)

	want := Hit{NoteID: "n1", VersionID: "v1", FolderID: "f1", ChunkIndex: 3, Text: "hello"}
	if hit != want {
		t.Errorf("hitFromPayload() = %+v, want %+v", hit, want)
	}
	if meta[FieldUserID] != "user-1" {
		t.Errorf("payload user_id = %v, want user-1", meta[FieldUserID])
	}
}

func TestToQdrantFilter(t *testing.T) {
	if toQdrantFilter(Filter{}) != nil {
		t.Error("toQdrantFilter() of empty filter should be nil")
	}

	f := toQdrantFilter(Filter{Must: []FieldIn{
		{Field: FieldVersionID, Values: []string{"v1", "v2"}},
		{Field: FieldFolderID, Values: []string{"f1"}},
	}})
	if f == nil || len(f.Must) != 2 {
		t.Fatalf("toQdrantFilter() = %+v, want two conditions", f)
	}
	field := f.Must[0].GetField()
	if field.GetKey() != FieldVersionID {
		t.Errorf("condition key = %q, want %q", field.GetKey(), FieldVersionID)
	}
	if got := field.GetMatch().GetKeywords().GetStrings(); len(got) != 2 {
		t.Errorf("condition keywords = %v, want 2 values", got)
	}
}
