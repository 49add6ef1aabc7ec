package scope

import (
	"context"
	"fmt"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/storage"
	"notebook-ai/internal/vectorstore"
)

// NoteReader loads a live note owned by a user.
type NoteReader interface {
	GetByID(ctx context.Context, noteID, userID string) (*storage.Note, error)
}

// FolderReader loads a folder owned by a user.
type FolderReader interface {
	GetByID(ctx context.Context, folderID, userID string) (*storage.Folder, error)
}

// PublishedLister lists the published versions that a scope can cover.
type PublishedLister interface {
	LatestPublishedByNote(ctx context.Context, noteID string) (*storage.PublishedRef, error)
	LatestPublishedByFolder(ctx context.Context, userID, folderID string) ([]storage.PublishedRef, error)
	LatestPublishedByUser(ctx context.Context, userID string) ([]storage.PublishedRef, error)
	ListPublishedByUser(ctx context.Context, userID string) ([]storage.PublishedRef, error)
}

// VersionRef identifies one note version in scope.
type VersionRef struct {
	NoteID    string
	VersionID string
}

// Resolved is the set of versions a scope covered at resolution time.
type Resolved struct {
	Kind Kind
	Refs []VersionRef
}

// VersionIDs returns the version IDs in scope.
func (r Resolved) VersionIDs() []string {
	ids := make([]string, len(r.Refs))
	for i, ref := range r.Refs {
		ids[i] = ref.VersionID
	}
	return ids
}

// Empty reports whether nothing is in scope.
func (r Resolved) Empty() bool {
	return len(r.Refs) == 0
}

// Filter returns a vector store filter matching exactly the versions in scope.
// An empty scope yields a filter that matches nothing.
func (r Resolved) Filter() vectorstore.Filter {
	return vectorstore.VersionIn(r.VersionIDs()...)
}

// Resolver turns scopes into version sets.
type Resolver struct {
	notes    NoteReader
	folders  FolderReader
	versions PublishedLister
}

// NewResolver creates a new Resolver.
func NewResolver(notes NoteReader, folders FolderReader, versions PublishedLister) *Resolver {
	return &Resolver{
		notes:    notes,
		folders:  folders,
		versions: versions,
	}
}

// Resolve returns the versions covered by s for userID.
// A note or folder that is missing or owned by someone else yields storage.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, userID string, s Scope) (Resolved, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		refs []storage.PublishedRef
		err  error
	)

	switch sc := s.(type) {
	case NoteScope:
		if _, err = r.notes.GetByID(ctx, sc.NoteID, userID); err != nil {
			return Resolved{}, fmt.Errorf("failed to load note %s: %w", sc.NoteID, err)
		}
		var ref *storage.PublishedRef
		ref, err = r.versions.LatestPublishedByNote(ctx, sc.NoteID)
		if ref != nil {
			refs = []storage.PublishedRef{*ref}
		}
	case FolderScope:
		if _, err = r.folders.GetByID(ctx, sc.FolderID, userID); err != nil {
			return Resolved{}, fmt.Errorf("failed to load folder %s: %w", sc.FolderID, err)
		}
		refs, err = r.versions.LatestPublishedByFolder(ctx, userID, sc.FolderID)
	case GlobalScope:
		refs, err = r.versions.LatestPublishedByUser(ctx, userID)
	default:
		return Resolved{}, fmt.Errorf("unsupported scope type %T", s)
	}
	if err != nil {
		return Resolved{}, fmt.Errorf("failed to resolve %s scope: %w", s.Kind(), err)
	}

	resolved := Resolved{Kind: s.Kind(), Refs: toVersionRefs(refs)}
	logger.DebugContext(ctx, "resolved scope", "user_id", userID, "kind", resolved.Kind, "versions", len(resolved.Refs))
	return resolved, nil
}

// ResolvePublishedHistory returns every published version of every live note of the user,
// not just the latest one per note.
func (r *Resolver) ResolvePublishedHistory(ctx context.Context, userID string) (Resolved, error) {
	refs, err := r.versions.ListPublishedByUser(ctx, userID)
	if err != nil {
		return Resolved{}, fmt.Errorf("failed to resolve published history: %w", err)
	}
	return Resolved{Kind: KindGlobal, Refs: toVersionRefs(refs)}, nil
}

func toVersionRefs(refs []storage.PublishedRef) []VersionRef {
	out := make([]VersionRef, len(refs))
	for i, ref := range refs {
		out[i] = VersionRef{NoteID: ref.NoteID, VersionID: ref.VersionID}
	}
	return out
}
