package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		id      string
		want    Scope
		wantErr bool
	}{
		{name: "empty kind is global", kind: "", want: GlobalScope{}},
		{name: "global ignores id", kind: "global", id: "x", want: GlobalScope{}},
		{name: "note", kind: "note", id: "n-1", want: NoteScope{NoteID: "n-1"}},
		{name: "folder mixed case", kind: " Folder ", id: " f-1 ", want: FolderScope{FolderID: "f-1"}},
		{name: "note without id", kind: "note", wantErr: true},
		{name: "folder without id", kind: "folder", id: "  ", wantErr: true},
		{name: "unknown kind", kind: "tag", id: "t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScope_Kind(t *testing.T) {
	assert.Equal(t, KindNote, NoteScope{}.Kind())
	assert.Equal(t, KindFolder, FolderScope{}.Kind())
	assert.Equal(t, KindGlobal, GlobalScope{}.Kind())
}
