package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks notebook-ai/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// Payload fields stored alongside every chunk vector. Filters may only reference
// FieldNoteID, FieldVersionID and FieldFolderID.
const (
	FieldUserID     = "user_id"
	FieldNoteID     = "note_id"
	FieldVersionID  = "note_version_id"
	FieldFolderID   = "folder_id"
	FieldChunkIndex = "chunk_index"
	FieldChunkText  = "chunk_text"
)

// ErrInvalidTopK is returned when a query asks for zero or fewer results.
var ErrInvalidTopK = errors.New("topK must be greater than 0")

// Chunk is an embedded piece of a note version.
type Chunk struct {
	ID         string // UUID shared with the chunk ledger row
	NoteID     string
	VersionID  string
	FolderID   string // empty when the note is not in a folder
	ChunkIndex int
	Text       string
	Vector     []float32
}

// Hit is a chunk returned by a similarity query. Score is cosine similarity.
type Hit struct {
	ID         string
	Score      float32
	NoteID     string
	VersionID  string
	FolderID   string
	ChunkIndex int
	Text       string
}

// FieldIn restricts a payload field to a set of values.
type FieldIn struct {
	Field  string
	Values []string
}

// Filter is a conjunction of FieldIn predicates. The zero Filter matches the whole partition.
type Filter struct {
	Must []FieldIn
}

// VersionIn restricts results to the given note versions.
// With no IDs the filter matches nothing.
func VersionIn(ids ...string) Filter {
	return Filter{Must: []FieldIn{{Field: FieldVersionID, Values: ids}}}
}

// MatchesNothing reports whether some predicate has an empty value set,
// in which case the backend does not need to be queried at all.
func (f Filter) MatchesNothing() bool {
	for _, p := range f.Must {
		if len(p.Values) == 0 {
			return true
		}
	}
	return false
}

// validate rejects predicates over fields that are not filterable.
func (f Filter) validate() error {
	for _, p := range f.Must {
		switch p.Field {
		case FieldNoteID, FieldVersionID, FieldFolderID:
		default:
			return errors.New("unsupported filter field: " + p.Field)
		}
	}
	return nil
}

// VectorStore defines the interface for per-user chunk vector storage.
// Every operation is scoped to a single user's partition.
type VectorStore interface {
	// Upsert inserts or updates chunks in the user's partition.
	Upsert(ctx context.Context, userID string, chunks []Chunk) error

	// DeleteByVersion removes every chunk of a version and returns how many were removed.
	// A missing partition or version is not an error.
	DeleteByVersion(ctx context.Context, userID, versionID string) (int, error)

	// ReplaceVersion deletes the version's existing chunks and inserts the given ones.
	ReplaceVersion(ctx context.Context, userID, versionID string, chunks []Chunk) (int, error)

	// Query returns the topK most similar chunks that satisfy filter.
	Query(ctx context.Context, userID string, vector []float32, topK int, filter Filter) ([]Hit, error)

	// Count returns the number of chunks in the user's partition.
	Count(ctx context.Context, userID string) (int, error)
}
