// Package scope resolves a chat or search scope into the set of note versions it covers.
package scope

import (
	"fmt"
	"strings"
)

// Kind names a scope on the wire.
type Kind string

const (
	KindNote   Kind = "note"
	KindFolder Kind = "folder"
	KindGlobal Kind = "global"
)

// Scope is one of NoteScope, FolderScope or GlobalScope.
type Scope interface {
	Kind() Kind
	isScope()
}

// NoteScope restricts retrieval to the latest published version of one note.
type NoteScope struct {
	NoteID string
}

// FolderScope restricts retrieval to the latest published version of each note in a folder.
type FolderScope struct {
	FolderID string
}

// GlobalScope covers the latest published version of every note of the user.
type GlobalScope struct{}

func (NoteScope) Kind() Kind   { return KindNote }
func (FolderScope) Kind() Kind { return KindFolder }
func (GlobalScope) Kind() Kind { return KindGlobal }

func (NoteScope) isScope()   {}
func (FolderScope) isScope() {}
func (GlobalScope) isScope() {}

// Parse builds a Scope from its wire representation. An empty kind means global.
func Parse(kind, id string) (Scope, error) {
	id = strings.TrimSpace(id)
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindGlobal:
		return GlobalScope{}, nil
	case KindNote:
		if id == "" {
			return nil, fmt.Errorf("note scope requires an id")
		}
		return NoteScope{NoteID: id}, nil
	case KindFolder:
		if id == "" {
			return nil, fmt.Errorf("folder scope requires an id")
		}
		return FolderScope{FolderID: id}, nil
	default:
		return nil, fmt.Errorf("unknown scope kind %q", kind)
	}
}
