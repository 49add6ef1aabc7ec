// Package search turns vector hits or text matches into note-level search results.
package search

import "time"

// Result is the response of a search, identical in shape for semantic and text search.
type Result struct {
	Query         string       `json:"query"`
	NumResults    int          `json:"num_results"`
	SearchResults []ResultNote `json:"search_results"`
}

// NoteInfo is the note part of a search result.
type NoteInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultNote is one note in a search result with the versions that matched.
type ResultNote struct {
	Note       NoteInfo `json:"note"`
	FolderID   *string  `json:"folder_id"`
	FolderName string   `json:"folder_name,omitempty"`
	// DisplayedVersion is the note's current version when it matched, otherwise the best match.
	DisplayedVersion ResultVersion `json:"displayed_version"`
	// AdditionalVersions are the other matching versions, best score first.
	AdditionalVersions []ResultVersion `json:"additional_versions"`
	// Score is the displayed version's score.
	Score float32 `json:"score"`
}

// ResultVersion is a matching version of a note.
type ResultVersion struct {
	ID            string     `json:"id"`
	VersionNumber int        `json:"version_number"`
	IsPublished   bool       `json:"is_published"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	Score         float32    `json:"score"`
	Preview       string     `json:"preview"`
}

// NewResult wraps notes into a Result.
func NewResult(query string, notes []ResultNote) Result {
	if notes == nil {
		notes = []ResultNote{}
	}
	return Result{
		Query:         query,
		NumResults:    len(notes),
		SearchResults: notes,
	}
}
