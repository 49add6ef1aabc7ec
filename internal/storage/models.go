package storage

import (
	"encoding/json"
	"time"
)

// Folder groups notes for a single user.
type Folder struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// Note is the stable identity for a sequence of versions.
type Note struct {
	ID               string
	UserID           string
	FolderID         *string // nil when the note is not in a folder
	Title            string
	CurrentVersionID *string // version the user is viewing/editing, not necessarily published
	IsPinned         bool
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Version is a snapshot of a note's content.
type Version struct {
	ID            string
	NoteID        string
	VersionNumber int // Monotonic per note, starts at 1
	RichContent   json.RawMessage
	PlainText     string // Derived from RichContent
	IsPublished   bool
	PublishedAt   *time.Time
	CreatedAt     time.Time
}

// NoteWithVersion pairs a note with one of its versions.
type NoteWithVersion struct {
	Note    Note
	Version Version
}

// PublishedRef identifies the published version of a note that is in scope.
type PublishedRef struct {
	NoteID    string
	VersionID string
}

// ChunkRecord is the relational ledger row for an embedded chunk.
// ID is shared with the vector store point.
type ChunkRecord struct {
	ID         string
	UserID     string
	NoteID     string
	VersionID  string
	ChunkIndex int // Index within version (starts at 0)
	Text       string
	CreatedAt  time.Time
}
