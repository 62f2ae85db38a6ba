package noteapp

import (
	"context"
	"time"
)

// Note is a tenant-owned entry moving through a draft/published lifecycle.
//
// The published flag and PublishedBlobURI are owned exclusively by the note
// lifecycle service: a note is published if and only if PublishedBlobURI is
// set. No other component may change either field.
type Note struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenantId"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Date             time.Time `json:"date"`
	BlobURI          string    `json:"blobUri"`
	PublishedBlobURI string    `json:"publishedBlobUri,omitempty"`
	Published        bool      `json:"published"`
}

// NoteData is the attribute set attached to a note, keyed by attribute name.
// Attribute names are unique within a note; values may be empty.
type NoteData map[string]string

// NoteCreate is the set of fields required to create a note.
type NoteCreate struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Format  string   `json:"format"`
	Content string   `json:"content"`
	Data    NoteData `json:"data"`
}

// NoteUpdate is the set of fields applied by an edit. The full attribute set
// is supplied; attributes absent from Data are removed from the note.
type NoteUpdate struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Format  string   `json:"format"`
	Content string   `json:"content"`
	Data    NoteData `json:"data"`
}

// PublishFormat selects the shape of the rendered publish artifact.
type PublishFormat string

const (
	// PublishFormatFile renders a front-matter header block followed by the
	// raw content, named {tenant}/{date}-{slug}{ext}.
	PublishFormatFile PublishFormat = "file"
	// PublishFormatJSON publishes the raw content under {tenant}/{slug}.json.
	PublishFormatJSON PublishFormat = "json"
)

// PublishSignal identifies a note that downstream consumers should treat as
// published at Date. Returned by migrations so callers can re-trigger
// publish signaling with the original chronology.
type PublishSignal struct {
	NoteID string    `json:"noteId"`
	Date   time.Time `json:"date"`
}

// MigrateOptions controls a legacy-schema migration pass.
type MigrateOptions struct {
	// Published selects which legacy partition is read.
	Published bool
	// ContainerReplacement is an "old=new" pair applied to legacy blob
	// locators, used when content was copied to a new container out of band.
	ContainerReplacement string
}

// NoteService is the note lifecycle engine.
type NoteService interface {
	// FindNotes returns all of a tenant's notes and their attribute sets,
	// keyed by note ID. Content is not fetched.
	FindNotes(ctx context.Context, tenantID string) ([]*Note, map[string]NoteData, error)

	// FindNote returns a single note, its attributes and its draft content.
	FindNote(ctx context.Context, tenantID, id string) (*Note, NoteData, string, error)

	// CreateNote uploads content and inserts a new draft note.
	CreateNote(ctx context.Context, tenantID string, create NoteCreate) (*Note, error)

	// UpdateNote replaces a note's content, metadata and attribute set.
	UpdateNote(ctx context.Context, tenantID, id string, upd NoteUpdate) (*Note, error)

	// DeleteNote removes the note, its attributes and its content blobs.
	DeleteNote(ctx context.Context, tenantID, id string) error

	// PublishNote renders and uploads the publish artifact and sets the
	// published flag. A zero date publishes with the current time.
	PublishNote(ctx context.Context, tenantID, id string, format PublishFormat, date time.Time) (*Note, error)

	// UnpublishNote removes the publish artifact and clears the flag.
	UnpublishNote(ctx context.Context, tenantID, id string) (*Note, error)

	// Migrate reshapes a tenant's notes from the legacy partitioning scheme
	// into the current one, returning publish signals for already-published
	// notes. Legacy rows are left in place for the caller to reclaim.
	Migrate(ctx context.Context, tenantID string, opts MigrateOptions) ([]PublishSignal, error)
}
