package notes

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kv"
)

// noteDateLayout is the persisted timestamp format for note records.
const noteDateLayout = time.RFC3339

func parseNoteDate(s string) (time.Time, error) {
	return time.Parse(noteDateLayout, s)
}

const (
	// NotesCollection holds note records: partition = tenant, row = note id.
	NotesCollection = "notes"
	// DataCollection holds attribute records: partition = tenant,
	// row = {noteID}-{attributeName}.
	DataCollection = "note_data"

	attrDelimiter = "-"
)

// Store persists notes and their attribute rows in the record store. Notes
// and attributes share the tenant partition namespace.
type Store struct {
	kv kv.Store
}

// NewStore returns a note store over the given record store.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// noteRecord is the persisted shape of a note. The id and tenant live in the
// row and partition keys.
type noteRecord struct {
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Date             string `json:"date"`
	BlobURI          string `json:"blobUri"`
	PublishedBlobURI string `json:"publishedBlobUri,omitempty"`
	Published        bool   `json:"published"`
}

func marshalNote(n *noteapp.Note) (kv.Record, error) {
	v, err := json.Marshal(noteRecord{
		Title:            n.Title,
		Slug:             n.Slug,
		Date:             n.Date.UTC().Format(noteDateLayout),
		BlobURI:          n.BlobURI,
		PublishedBlobURI: n.PublishedBlobURI,
		Published:        n.Published,
	})
	if err != nil {
		return kv.Record{}, err
	}
	return kv.Record{Partition: n.TenantID, Row: n.ID, Value: v}, nil
}

func unmarshalNote(rec kv.Record) (*noteapp.Note, error) {
	var r noteRecord
	if err := json.Unmarshal(rec.Value, &r); err != nil {
		return nil, ErrCorruptNote(err)
	}

	n := &noteapp.Note{
		ID:               rec.Row,
		TenantID:         rec.Partition,
		Title:            r.Title,
		Slug:             r.Slug,
		BlobURI:          r.BlobURI,
		PublishedBlobURI: r.PublishedBlobURI,
		Published:        r.Published,
	}
	if r.Date != "" {
		t, err := parseNoteDate(r.Date)
		if err != nil {
			return nil, ErrCorruptNote(err)
		}
		n.Date = t
	}
	return n, nil
}

// GetNote returns a single note by id.
func (s *Store) GetNote(ctx context.Context, tenantID, id string) (*noteapp.Note, error) {
	rec, err := s.kv.Get(ctx, NotesCollection, tenantID, id)
	if kv.IsNotFound(err) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return unmarshalNote(*rec)
}

// ListNotes returns every note in the tenant's partition.
func (s *Store) ListNotes(ctx context.Context, tenantID string) ([]*noteapp.Note, error) {
	recs, err := s.kv.Scan(ctx, NotesCollection, tenantID)
	if err != nil {
		return nil, err
	}

	ns := make([]*noteapp.Note, 0, len(recs))
	for _, rec := range recs {
		n, err := unmarshalNote(rec)
		if err != nil {
			continue
		}
		ns = append(ns, n)
	}
	return ns, nil
}

// GetNoteData returns the attribute set of one note, range-queried by the
// note id prefix.
func (s *Store) GetNoteData(ctx context.Context, tenantID, noteID string) (noteapp.NoteData, error) {
	recs, err := s.kv.RangeQuery(ctx, DataCollection, tenantID, noteID)
	if err != nil {
		return nil, err
	}

	data := noteapp.NoteData{}
	for _, rec := range recs {
		name, ok := attrName(rec.Row)
		if !ok {
			continue
		}
		data[name] = string(rec.Value)
	}
	return data, nil
}

// ListNoteData returns the attribute sets of every note in the tenant's
// partition, keyed by note id.
func (s *Store) ListNoteData(ctx context.Context, tenantID string) (map[string]noteapp.NoteData, error) {
	recs, err := s.kv.Scan(ctx, DataCollection, tenantID)
	if err != nil {
		return nil, err
	}

	out := map[string]noteapp.NoteData{}
	for _, rec := range recs {
		parts := strings.SplitN(rec.Row, attrDelimiter, 2)
		if len(parts) != 2 {
			continue
		}
		noteID, name := parts[0], parts[1]
		if out[noteID] == nil {
			out[noteID] = noteapp.NoteData{}
		}
		out[noteID][name] = string(rec.Value)
	}
	return out, nil
}

// InsertNote stores a new note record.
func (s *Store) InsertNote(ctx context.Context, n *noteapp.Note) error {
	rec, err := marshalNote(n)
	if err != nil {
		return err
	}
	return s.kv.Insert(ctx, NotesCollection, rec)
}

// ReplaceNote overwrites an existing note record.
func (s *Store) ReplaceNote(ctx context.Context, n *noteapp.Note) error {
	rec, err := marshalNote(n)
	if err != nil {
		return err
	}
	return s.kv.Replace(ctx, NotesCollection, rec, false)
}

// DeleteNote removes a note record.
func (s *Store) DeleteNote(ctx context.Context, n *noteapp.Note) error {
	rec, err := marshalNote(n)
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, NotesCollection, rec)
}

// InsertData batch-inserts attribute rows for every non-empty value.
func (s *Store) InsertData(ctx context.Context, tenantID, noteID string, data noteapp.NoteData) error {
	var ops []kv.BatchOp
	for name, value := range data {
		if value == "" {
			continue
		}
		ops = append(ops, kv.BatchOp{
			Kind:   kv.BatchInsert,
			Record: dataRecord(tenantID, noteID, name, value),
		})
	}
	return s.kv.Batch(ctx, DataCollection, tenantID, ops)
}

// ReconcileData applies a full new attribute set in one batch: every
// attribute present in newData is upserted, every previously stored
// attribute absent from it is deleted.
func (s *Store) ReconcileData(ctx context.Context, tenantID, noteID string, newData, oldData noteapp.NoteData) error {
	var ops []kv.BatchOp
	for name, value := range newData {
		ops = append(ops, kv.BatchOp{
			Kind:   kv.BatchUpsert,
			Record: dataRecord(tenantID, noteID, name, value),
		})
	}
	for name := range oldData {
		if _, ok := newData[name]; ok {
			continue
		}
		ops = append(ops, kv.BatchOp{
			Kind:   kv.BatchDelete,
			Record: dataRecord(tenantID, noteID, name, ""),
		})
	}
	return s.kv.Batch(ctx, DataCollection, tenantID, ops)
}

// DeleteData batch-deletes the attribute rows named in data.
func (s *Store) DeleteData(ctx context.Context, tenantID, noteID string, data noteapp.NoteData) error {
	var ops []kv.BatchOp
	for name := range data {
		ops = append(ops, kv.BatchOp{
			Kind:   kv.BatchDelete,
			Record: dataRecord(tenantID, noteID, name, ""),
		})
	}
	return s.kv.Batch(ctx, DataCollection, tenantID, ops)
}

func dataRecord(tenantID, noteID, name, value string) kv.Record {
	return kv.Record{
		Partition: tenantID,
		Row:       noteID + attrDelimiter + name,
		Value:     []byte(value),
	}
}

// attrName extracts the attribute name from a data row key.
func attrName(row string) (string, bool) {
	i := strings.Index(row, attrDelimiter)
	if i < 0 || i == len(row)-1 {
		return "", false
	}
	return row[i+1:], true
}
