package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.0"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// CoverageStats summarizes how much of a user's published content is embedded.
type CoverageStats struct {
	// PublishedVersions is the number of published versions of live notes.
	PublishedVersions int `json:"published_versions"`
	// VersionsWith0Chunks is the number of published versions that have no chunks.
	VersionsWith0Chunks int `json:"versions_with_0_chunks"`
	// ChunksEmbedded is the number of chunks in the ledger.
	ChunksEmbedded int `json:"chunks_embedded"`
	// VectorPoints is the number of vectors in the user's partition.
	VectorPoints int `json:"vector_points"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes embedding coverage for a user from the ledger and vector store.
func (p *Pipeline) CoverageStats(ctx context.Context, userID, embeddingModelName string) (*CoverageStats, error) {
	published, err := p.versionRepo.ListPublishedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list published versions: %w", err)
	}

	chunks, err := p.chunkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	points, err := p.vectorStore.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}

	embedded := make(map[string]bool)
	tokenCounts := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		embedded[chunk.VersionID] = true

		runeCount := utf8.RuneCountInString(chunk.Text)
		tokenCount := int(math.Ceil(float64(runeCount) / TokensPerRune))
		if tokenCount < 1 {
			tokenCount = 1
		}
		tokenCounts = append(tokenCounts, tokenCount)
	}

	stats := &CoverageStats{
		PublishedVersions: len(published),
		ChunksEmbedded:    len(chunks),
		VectorPoints:      points,
		ChunkTokenStats:   computeTokenStats(tokenCounts),
		ChunkerVersion:    ChunkerVersion,
	}
	for _, ref := range published {
		if !embedded[ref.VersionID] {
			stats.VersionsWith0Chunks++
		}
	}

	indexVersionInput := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d|shortText=%d",
		ChunkerVersion, embeddingModelName, p.chunker.Size(), p.chunker.Overlap(), ShortTextThreshold)
	hash := sha256.Sum256([]byte(indexVersionInput))
	stats.IndexVersion = hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits

	return stats, nil
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	// Nearest-rank percentile.
	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
