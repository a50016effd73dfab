package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{"plain name", Identity{Name: "Alice", Email: "alice@example.com"}, "Alice"},
		{"surrounding whitespace", Identity{Name: "  Bob \t", Email: "bob@example.com"}, "Bob"},
		{"blank name falls back to email", Identity{Name: "   ", Email: "carol@example.com"}, "carol@example.com"},
		{"empty name falls back to email", Identity{Email: "dave@example.com"}, "dave@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.identity.DisplayName())
		})
	}
}

func TestChangeCounts_Add(t *testing.T) {
	c := ChangeCounts{FilesAdded: 1, LinesAdded: 10}
	c.Add(ChangeCounts{FilesAdded: 2, FilesDeleted: 1, FilesChanged: 3, LinesAdded: 5, LinesDeleted: 4, LinesChanged: 7})

	assert.Equal(t, ChangeCounts{FilesAdded: 3, FilesDeleted: 1, FilesChanged: 3, LinesAdded: 15, LinesDeleted: 4, LinesChanged: 7}, c)
	assert.Equal(t, 7, c.FilesAffected())
	assert.Equal(t, 26, c.LinesAffected())
	assert.False(t, c.IsZero())
	assert.True(t, ChangeCounts{}.IsZero())
}

func TestCommitRecord_When(t *testing.T) {
	r := &CommitRecord{Time: 86400}
	assert.Equal(t, "1970-01-02", r.When().Format("2006-01-02"))
}
