package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/storage"
	"notebook-ai/internal/vectorstore"
)

// ErrNotPublished is returned when embedding is requested for a version that is not published.
var ErrNotPublished = errors.New("version is not published")

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, llm.Usage, error)
}

// Pipeline embeds published note versions into the chunk ledger and the vector store.
type Pipeline struct {
	noteRepo    storage.NoteStore
	versionRepo storage.VersionStore
	chunkRepo   storage.ChunkStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	chunker     *Chunker
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	noteRepo storage.NoteStore,
	versionRepo storage.VersionStore,
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	chunker *Chunker,
) *Pipeline {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &Pipeline{
		noteRepo:    noteRepo,
		versionRepo: versionRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		chunker:     chunker,
	}
}

// EmbedVersion re-derives the plain text of a published version, stores it,
// and replaces the version's chunks.
func (p *Pipeline) EmbedVersion(ctx context.Context, userID, versionID string) (EmbedResult, error) {
	version, err := p.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return EmbedResult{}, fmt.Errorf("failed to load version: %w", err)
	}
	if !version.IsPublished {
		return EmbedResult{}, fmt.Errorf("version %s: %w", versionID, ErrNotPublished)
	}

	note, err := p.noteRepo.GetByID(ctx, version.NoteID, userID)
	if err != nil {
		return EmbedResult{}, fmt.Errorf("failed to load note: %w", err)
	}

	plainText := ExtractPlainText(version.RichContent)
	if plainText != version.PlainText {
		if err := p.versionRepo.UpdatePlainText(ctx, versionID, plainText); err != nil {
			return EmbedResult{}, fmt.Errorf("failed to store plain text: %w", err)
		}
	}

	target := EmbedTarget{
		UserID:    userID,
		NoteID:    note.ID,
		VersionID: version.ID,
	}
	if note.FolderID != nil {
		target.FolderID = *note.FolderID
	}
	return p.EmbedText(ctx, target, plainText)
}

// EmbedText chunks and embeds plainText for target, then swaps the version's chunks.
// Embedding runs before anything is deleted, so a failed call leaves the previous
// chunks in place.
func (p *Pipeline) EmbedText(ctx context.Context, target EmbedTarget, plainText string) (EmbedResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	result := EmbedResult{VersionID: target.VersionID}

	chunks := p.chunker.Chunk(plainText)
	if len(chunks) == 0 {
		removed, err := p.RemoveVersion(ctx, target.UserID, target.VersionID)
		if err != nil {
			return result, err
		}
		result.Removed = removed
		logger.WarnContext(ctx, "no chunks generated", "version_id", target.VersionID, "removed", removed)
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, usage, err := p.embedder.EmbedTexts(ctx, texts)
	result.Usage = usage
	if err != nil {
		return result, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return result, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	records := make([]*storage.ChunkRecord, len(chunks))
	points := make([]vectorstore.Chunk, len(chunks))
	for i, c := range chunks {
		id := uuid.New().String()
		records[i] = &storage.ChunkRecord{
			ID:         id,
			UserID:     target.UserID,
			NoteID:     target.NoteID,
			VersionID:  target.VersionID,
			ChunkIndex: c.Index,
			Text:       c.Text,
		}
		points[i] = vectorstore.Chunk{
			ID:         id,
			NoteID:     target.NoteID,
			VersionID:  target.VersionID,
			FolderID:   target.FolderID,
			ChunkIndex: c.Index,
			Text:       c.Text,
			Vector:     embeddings[i],
		}
	}

	if _, err := p.chunkRepo.ReplaceForVersion(ctx, target.VersionID, records); err != nil {
		return result, fmt.Errorf("failed to store chunks: %w", err)
	}

	removed, err := p.vectorStore.ReplaceVersion(ctx, target.UserID, target.VersionID, points)
	if err != nil {
		// Keep the ledger in step with the vector store so the user is not
		// counted as having embeddings that cannot be queried.
		if _, delErr := p.chunkRepo.DeleteByVersion(ctx, target.VersionID); delErr != nil {
			logger.ErrorContext(ctx, "failed to roll back chunk ledger", "version_id", target.VersionID, "error", delErr)
		}
		return result, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	result.Chunks = len(chunks)
	result.Removed = removed
	logger.InfoContext(ctx, "embedded version",
		"version_id", target.VersionID,
		"note_id", target.NoteID,
		"chunks", result.Chunks,
		"removed", removed,
		"embedding_tokens", usage.EmbeddingTokens,
	)
	return result, nil
}

// RemoveVersion deletes a version's chunks from the vector store and the ledger.
// Returns the number of vectors removed.
func (p *Pipeline) RemoveVersion(ctx context.Context, userID, versionID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	removed, err := p.vectorStore.DeleteByVersion(ctx, userID, versionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	if _, err := p.chunkRepo.DeleteByVersion(ctx, versionID); err != nil {
		return removed, fmt.Errorf("failed to delete chunks: %w", err)
	}

	if removed > 0 {
		logger.InfoContext(ctx, "removed version chunks", "version_id", versionID, "removed", removed)
	}
	return removed, nil
}

// RemoveNote deletes the chunks of every version of a note.
func (p *Pipeline) RemoveNote(ctx context.Context, userID, noteID string) (int, error) {
	versionIDs, err := p.versionRepo.ListIDsByNote(ctx, noteID)
	if err != nil {
		return 0, fmt.Errorf("failed to list versions: %w", err)
	}

	total := 0
	for _, id := range versionIDs {
		n, err := p.RemoveVersion(ctx, userID, id)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
