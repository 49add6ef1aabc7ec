package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/indexer"
	"notebook-ai/internal/service"
	"notebook-ai/internal/storage"
)

// NoteCreator creates a note with its first version.
type NoteCreator interface {
	Create(ctx context.Context, note *storage.Note, richContent json.RawMessage, plainText string) (*storage.Version, error)
}

// FolderResolver maps folder names to folders.
type FolderResolver interface {
	GetOrCreateByName(ctx context.Context, userID, name string) (*storage.Folder, error)
}

// Publisher publishes a version and embeds it.
type Publisher interface {
	Publish(ctx context.Context, userID, versionID string) (service.PublishResult, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Scanned      int      `json:"scanned"`
	Imported     int      `json:"imported"`
	Published    int      `json:"published"`
	Chunks       int      `json:"chunks"`
	EmbedFailed  int      `json:"embed_failed"`
	NoteIDs      []string `json:"note_ids"`
	SkippedEmpty []string `json:"skipped_empty,omitempty"`
}

// Importer creates notes from a directory of markdown files.
type Importer struct {
	notes     NoteCreator
	folders   FolderResolver
	publisher Publisher
}

// NewImporter creates a new Importer. publisher may be nil when imports never publish.
func NewImporter(notes NoteCreator, folders FolderResolver, publisher Publisher) *Importer {
	return &Importer{notes: notes, folders: folders, publisher: publisher}
}

// Import creates one note per markdown file under root, owned by userID.
// Subdirectories become folders named by their relative path. With publish set
// every imported version is published; embedding failures are counted, not fatal.
func (im *Importer) Import(ctx context.Context, userID, root string, publish bool) (ImportResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if userID == "" {
		return ImportResult{}, &service.ValidationError{Field: "user", Message: "user is required"}
	}
	if publish && im.publisher == nil {
		return ImportResult{}, errors.New("publish requested but no publisher configured")
	}

	files, err := Scan(ctx, root)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Scanned: len(files), NoteIDs: []string{}}
	folderIDs := make(map[string]string)

	for _, f := range files {
		src, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
		}

		doc, err := Convert(src, titleFromPath(f.RelPath))
		if err != nil {
			return result, fmt.Errorf("failed to convert %s: %w", f.RelPath, err)
		}
		plainText := indexer.ExtractPlainText(doc.RichContent)
		if plainText == "" {
			result.SkippedEmpty = append(result.SkippedEmpty, f.RelPath)
			continue
		}

		note := &storage.Note{UserID: userID, Title: doc.Title}
		if f.Folder != "" {
			folderID, ok := folderIDs[f.Folder]
			if !ok {
				folder, err := im.folders.GetOrCreateByName(ctx, userID, f.Folder)
				if err != nil {
					return result, fmt.Errorf("failed to resolve folder %s: %w", f.Folder, err)
				}
				folderID = folder.ID
				folderIDs[f.Folder] = folderID
			}
			note.FolderID = &folderID
		}

		version, err := im.notes.Create(ctx, note, doc.RichContent, plainText)
		if err != nil {
			return result, fmt.Errorf("failed to create note for %s: %w", f.RelPath, err)
		}
		result.Imported++
		result.NoteIDs = append(result.NoteIDs, note.ID)

		if !publish {
			continue
		}
		pub, err := im.publisher.Publish(ctx, userID, version.ID)
		if err != nil {
			return result, fmt.Errorf("failed to publish %s: %w", f.RelPath, err)
		}
		result.Published++
		if pub.EmbedError != nil {
			result.EmbedFailed++
			logger.WarnContext(ctx, "imported note not embedded", "path", f.RelPath, "version_id", version.ID, "error", pub.EmbedError)
			continue
		}
		result.Chunks += pub.Chunks
	}

	logger.InfoContext(ctx, "import complete",
		"root", root,
		"scanned", result.Scanned,
		"imported", result.Imported,
		"published", result.Published,
		"embed_failed", result.EmbedFailed,
	)
	return result, nil
}
