package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/storage"
	"notebook-ai/internal/vectorstore"
)

// ErrDataInconsistency means the vector store references notes or versions the
// relational store does not have.
var ErrDataInconsistency = errors.New("vector store and relational store are inconsistent")

// NoteLookup loads a live note owned by a user.
type NoteLookup interface {
	GetByID(ctx context.Context, noteID, userID string) (*storage.Note, error)
}

// FolderLookup loads a folder owned by a user.
type FolderLookup interface {
	GetByID(ctx context.Context, folderID, userID string) (*storage.Folder, error)
}

// VersionLookup lists the versions of a note that can appear in search results.
type VersionLookup interface {
	ListCurrentAndPublished(ctx context.Context, noteID string) ([]storage.Version, error)
}

// Aggregator groups chunk hits into ranked notes.
type Aggregator struct {
	notes    NoteLookup
	folders  FolderLookup
	versions VersionLookup
}

// NewAggregator creates a new Aggregator.
func NewAggregator(notes NoteLookup, folders FolderLookup, versions VersionLookup) *Aggregator {
	return &Aggregator{
		notes:    notes,
		folders:  folders,
		versions: versions,
	}
}

type versionMatch struct {
	version storage.Version
	score   float32
	text    string
	order   int
}

// Aggregate groups hits by note, picks the displayed version of each note and orders
// notes by displayed score. Hits must come from userID's partition.
func (a *Aggregator) Aggregate(ctx context.Context, hits []vectorstore.Hit, userID string) ([]ResultNote, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var noteOrder []string
	groups := make(map[string][]vectorstore.Hit)
	for _, hit := range hits {
		if _, ok := groups[hit.NoteID]; !ok {
			noteOrder = append(noteOrder, hit.NoteID)
		}
		groups[hit.NoteID] = append(groups[hit.NoteID], hit)
	}

	results := make([]ResultNote, 0, len(noteOrder))
	for _, noteID := range noteOrder {
		result, err := a.aggregateNote(ctx, userID, noteID, groups[noteID])
		if err != nil {
			if errors.Is(err, ErrDataInconsistency) {
				logger.ErrorContext(ctx, "search aggregation failed", "user_id", userID, "note_id", noteID, "error", err)
			}
			return nil, err
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.DebugContext(ctx, "aggregated search hits", "hits", len(hits), "notes", len(results))
	return results, nil
}

func (a *Aggregator) aggregateNote(ctx context.Context, userID, noteID string, hits []vectorstore.Hit) (ResultNote, error) {
	logger := contextutil.LoggerFromContext(ctx)

	note, err := a.notes.GetByID(ctx, noteID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ResultNote{}, fmt.Errorf("%w: note %s not found", ErrDataInconsistency, noteID)
	}
	if err != nil {
		return ResultNote{}, fmt.Errorf("failed to load note %s: %w", noteID, err)
	}

	var folderName string
	if note.FolderID != nil {
		folder, err := a.folders.GetByID(ctx, *note.FolderID, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			logger.WarnContext(ctx, "note references a missing folder", "note_id", noteID, "folder_id", *note.FolderID)
		case err != nil:
			return ResultNote{}, fmt.Errorf("failed to load folder %s: %w", *note.FolderID, err)
		default:
			folderName = folder.Name
		}
	}

	known, err := a.versions.ListCurrentAndPublished(ctx, noteID)
	if err != nil {
		return ResultNote{}, fmt.Errorf("failed to list versions of note %s: %w", noteID, err)
	}
	byID := make(map[string]storage.Version, len(known))
	for _, v := range known {
		byID[v.ID] = v
	}

	matches := make(map[string]*versionMatch)
	for i, hit := range hits {
		v, ok := byID[hit.VersionID]
		if !ok {
			return ResultNote{}, fmt.Errorf("%w: version %s of note %s not found", ErrDataInconsistency, hit.VersionID, noteID)
		}
		m, ok := matches[v.ID]
		if !ok {
			matches[v.ID] = &versionMatch{version: v, score: hit.Score, text: hit.Text, order: i}
			continue
		}
		if hit.Score > m.score {
			m.score = hit.Score
			m.text = hit.Text
		}
	}
	if len(matches) == 0 {
		return ResultNote{}, fmt.Errorf("%w: note %s has no resolved versions", ErrDataInconsistency, noteID)
	}

	ranked := make([]*versionMatch, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, m)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	displayed := 0
	if note.CurrentVersionID != nil {
		for i, m := range ranked {
			if m.version.ID == *note.CurrentVersionID {
				displayed = i
				break
			}
		}
	}

	result := ResultNote{
		Note:               noteInfo(note),
		FolderID:           note.FolderID,
		FolderName:         folderName,
		DisplayedVersion:   ranked[displayed].resultVersion(),
		AdditionalVersions: make([]ResultVersion, 0, len(ranked)-1),
		Score:              ranked[displayed].score,
	}
	for i, m := range ranked {
		if i != displayed {
			result.AdditionalVersions = append(result.AdditionalVersions, m.resultVersion())
		}
	}
	return result, nil
}

func (m *versionMatch) resultVersion() ResultVersion {
	return newResultVersion(m.version, m.score, m.text)
}

func newResultVersion(v storage.Version, score float32, text string) ResultVersion {
	return ResultVersion{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		IsPublished:   v.IsPublished,
		PublishedAt:   v.PublishedAt,
		CreatedAt:     v.CreatedAt,
		Score:         score,
		Preview:       Preview(text, PreviewLength),
	}
}

func noteInfo(n *storage.Note) NoteInfo {
	return NoteInfo{
		ID:        n.ID,
		Title:     n.Title,
		IsPinned:  n.IsPinned,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
