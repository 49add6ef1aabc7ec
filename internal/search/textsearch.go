package search

import (
	"context"
	"errors"
	"fmt"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/storage"
)

// TextSearchLimit caps the number of notes returned by text search.
const TextSearchLimit = 10

// NoteTextSearcher finds notes whose title or current content contains a query.
type NoteTextSearcher interface {
	SearchText(ctx context.Context, userID, query string, limit int) ([]storage.NoteWithVersion, error)
}

// TextSearcher is the substring search used when a user has no embedded chunks.
type TextSearcher struct {
	notes   NoteTextSearcher
	folders FolderLookup
}

// NewTextSearcher creates a new TextSearcher.
func NewTextSearcher(notes NoteTextSearcher, folders FolderLookup) *TextSearcher {
	return &TextSearcher{
		notes:   notes,
		folders: folders,
	}
}

// Search returns notes matching query, most recently updated first.
// Every result has score 1 and shows only the current version.
func (s *TextSearcher) Search(ctx context.Context, query, userID string) ([]ResultNote, error) {
	logger := contextutil.LoggerFromContext(ctx)

	matches, err := s.notes.SearchText(ctx, userID, query, TextSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes by text: %w", err)
	}

	folderNames := make(map[string]string)
	results := make([]ResultNote, 0, len(matches))
	for _, m := range matches {
		note := m.Note

		var folderName string
		if note.FolderID != nil {
			name, ok := folderNames[*note.FolderID]
			if !ok {
				folder, err := s.folders.GetByID(ctx, *note.FolderID, userID)
				switch {
				case errors.Is(err, storage.ErrNotFound):
				case err != nil:
					return nil, fmt.Errorf("failed to load folder %s: %w", *note.FolderID, err)
				default:
					name = folder.Name
				}
				folderNames[*note.FolderID] = name
			}
			folderName = name
		}

		results = append(results, ResultNote{
			Note:               noteInfo(&note),
			FolderID:           note.FolderID,
			FolderName:         folderName,
			DisplayedVersion:   newResultVersion(m.Version, 1, m.Version.PlainText),
			AdditionalVersions: []ResultVersion{},
			Score:              1,
		})
	}

	logger.InfoContext(ctx, "text search completed", "user_id", userID, "results", len(results))
	return results, nil
}
