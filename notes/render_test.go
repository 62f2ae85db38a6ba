package notes

import (
	"testing"
	"time"

	"github.com/noteapp/noteapp"
	"github.com/stretchr/testify/assert"
)

func TestDraftName(t *testing.T) {
	date := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "tenant1/2024-05-01-my-note.md", draftName("tenant1", date, "my-note", "md"))
}

func TestPublishName(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	n := &noteapp.Note{Slug: "my-note", BlobURI: "note-entries/tenant1/2024-05-01-my-note.md"}

	assert.Equal(t, "tenant1/2024-05-01-my-note.md", publishName(noteapp.PublishFormatFile, "tenant1", date, n))
	assert.Equal(t, "tenant1/my-note.json", publishName(noteapp.PublishFormatJSON, "tenant1", date, n))
}

func TestRenderArtifact_File(t *testing.T) {
	n := &noteapp.Note{Title: `A "quoted" title`, Slug: "my-note"}
	data := noteapp.NoteData{
		"category":     "tech",
		"publish_date": "2024-05-01",
	}

	got := renderArtifact(noteapp.PublishFormatFile, n, data, "body text")

	want := "---\n" +
		"layout: note_entry\n" +
		"title: \"A \\\"quoted\\\" title\"\n" +
		"category: \"tech\"\n" +
		"publishDate: \"2024-05-01\"\n" +
		"---\n" +
		"body text\n"
	assert.Equal(t, want, got)
}

func TestRenderArtifact_JSONPassesContentThrough(t *testing.T) {
	n := &noteapp.Note{Title: "t", Slug: "s"}
	got := renderArtifact(noteapp.PublishFormatJSON, n, noteapp.NoteData{"k": "v"}, `{"a":1}`)
	assert.Equal(t, `{"a":1}`, got)
}

func TestCamelize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"category", "category"},
		{"publish_date", "publishDate"},
		{"publish date", "publishDate"},
		{"publish-date", "publishDate"},
		{"Header_Image_Url", "headerImageUrl"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, camelize(tt.in), "camelize(%q)", tt.in)
	}
}
