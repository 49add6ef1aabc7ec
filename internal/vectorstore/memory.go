package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"notebook-ai/internal/contextutil"
)

// MemoryStore implements VectorStore in process memory.
// It backs tests and single-node development setups.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Chunk // userID -> chunkID -> chunk
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]map[string]Chunk)}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Upsert inserts or updates chunks in the user's partition.
func (s *MemoryStore) Upsert(ctx context.Context, userID string, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(userID, chunks)
	return nil
}

func (s *MemoryStore) upsertLocked(userID string, chunks []Chunk) {
	if len(chunks) == 0 {
		return
	}
	part, ok := s.partitions[userID]
	if !ok {
		part = make(map[string]Chunk)
		s.partitions[userID] = part
	}
	for _, c := range chunks {
		c.Vector = append([]float32(nil), c.Vector...)
		part[c.ID] = c
	}
}

// DeleteByVersion removes every chunk of a version from the user's partition.
func (s *MemoryStore) DeleteByVersion(ctx context.Context, userID, versionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(userID, versionID), nil
}

func (s *MemoryStore) deleteLocked(userID, versionID string) int {
	part := s.partitions[userID]
	removed := 0
	for id, c := range part {
		if c.VersionID == versionID {
			delete(part, id)
			removed++
		}
	}
	return removed
}

// ReplaceVersion swaps a version's chunks under a single lock.
func (s *MemoryStore) ReplaceVersion(ctx context.Context, userID, versionID string, chunks []Chunk) (int, error) {
	for _, c := range chunks {
		if c.VersionID != versionID {
			return 0, fmt.Errorf("chunk %s belongs to version %s, not %s", c.ID, c.VersionID, versionID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.deleteLocked(userID, versionID)
	s.upsertLocked(userID, chunks)
	return removed, nil
}

// Query ranks the user's chunks by cosine similarity.
func (s *MemoryStore) Query(ctx context.Context, userID string, vector []float32, topK int, filter Filter) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if filter.MatchesNothing() {
		return []Hit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0)
	for _, c := range s.partitions[userID] {
		if !matches(c, filter) {
			continue
		}
		hits = append(hits, Hit{
			ID:         c.ID,
			Score:      cosine(vector, c.Vector),
			NoteID:     c.NoteID,
			VersionID:  c.VersionID,
			FolderID:   c.FolderID,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	logger.DebugContext(ctx, "memory query completed", "user_id", userID, "top_k", topK, "results", len(hits))
	return hits, nil
}

// Count returns the number of chunks in the user's partition.
func (s *MemoryStore) Count(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.partitions[userID]), nil
}

func matches(c Chunk, filter Filter) bool {
	for _, p := range filter.Must {
		var v string
		switch p.Field {
		case FieldNoteID:
			v = c.NoteID
		case FieldVersionID:
			v = c.VersionID
		case FieldFolderID:
			v = c.FolderID
		}
		found := false
		for _, want := range p.Values {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
