package indexer

import "notebook-ai/internal/llm"

// Chunk represents a chunk of a note version's plain text.
type Chunk struct {
	Index int    // Chunk index within version (starts at 0)
	Text  string // Chunk text content
}

// EmbedTarget identifies the version whose text is being embedded.
type EmbedTarget struct {
	UserID    string
	NoteID    string
	VersionID string
	FolderID  string
}

// EmbedResult reports what an embedding run changed.
type EmbedResult struct {
	VersionID string    `json:"version_id"`
	Chunks    int       `json:"chunks"`
	Removed   int       `json:"removed"`
	Usage     llm.Usage `json:"usage"`
}
