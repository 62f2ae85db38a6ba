package notes

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/noteapp/noteapp"
)

const dateLayout = "2006-01-02"

// draftName builds the deterministic draft blob name for a note.
func draftName(tenantID string, date time.Time, slug, format string) string {
	return fmt.Sprintf("%s/%s-%s.%s", tenantID, date.UTC().Format(dateLayout), slug, format)
}

// publishName builds the public-facing blob name for a publish artifact.
func publishName(format noteapp.PublishFormat, tenantID string, date time.Time, n *noteapp.Note) string {
	switch format {
	case noteapp.PublishFormatFile:
		return fmt.Sprintf("%s/%s-%s%s", tenantID, date.UTC().Format(dateLayout), n.Slug, path.Ext(n.BlobURI))
	case noteapp.PublishFormatJSON:
		return fmt.Sprintf("%s/%s.json", tenantID, n.Slug)
	default:
		return fmt.Sprintf("%s/%s", tenantID, path.Base(n.BlobURI))
	}
}

// renderArtifact builds the publish artifact. The file format prepends a
// front-matter header built from the note's attributes, ordered by attribute
// name as stored; other formats publish the raw content.
func renderArtifact(format noteapp.PublishFormat, n *noteapp.Note, data noteapp.NoteData, content string) string {
	if format != noteapp.PublishFormatFile {
		return content
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("layout: note_entry\n")
	fmt.Fprintf(&b, "title: %q\n", n.Title)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %q\n", camelize(name), data[name])
	}
	b.WriteString("---\n")
	b.WriteString(content)
	b.WriteString("\n")
	return b.String()
}

// camelize converts an attribute name to lowerCamelCase for front-matter
// keys: "publish_date" and "publish date" become "publishDate".
func camelize(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(parts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0][:1]) + parts[0][1:])
	for _, p := range parts[1:] {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}
