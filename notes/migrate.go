package notes

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kv"
)

// Legacy partitioning scheme: partition = {tenant}_draft or
// {tenant}_published, note row = whole seconds remaining until a fixed
// reference date (so rows sort newest first), attribute row = {uid}_{name}.
const (
	legacyDraftSuffix     = "_draft"
	legacyPublishedSuffix = "_published"
	legacyAttrDelimiter   = "_"
)

var legacyRefDate = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

// migratedNote is a note read out of some legacy schema, independent of how
// that schema laid it out.
type migratedNote struct {
	title   string
	slug    string
	blobURI string
	date    time.Time
	data    noteapp.NoteData
}

// schemaReader reads a tenant's notes out of one storage-schema version.
// Each legacy layout gets its own reader; they all feed the same
// current-schema writer in Migrate.
type schemaReader interface {
	read(ctx context.Context, tenantID string, published bool) ([]migratedNote, error)
}

// legacyNoteRecord is the persisted shape of a legacy note row.
type legacyNoteRecord struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	BlobURI string `json:"blobUri"`
	UID     string `json:"uid"`
}

// legacyReader reads the reverse-timestamp partitioning scheme.
type legacyReader struct {
	kv kv.Store
}

func (r legacyReader) read(ctx context.Context, tenantID string, published bool) ([]migratedNote, error) {
	part := tenantID + legacyDraftSuffix
	if published {
		part = tenantID + legacyPublishedSuffix
	}

	var noteRecs, dataRecs []kv.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		noteRecs, err = r.kv.Scan(gctx, NotesCollection, part)
		return err
	})
	g.Go(func() (err error) {
		dataRecs, err = r.kv.Scan(gctx, DataCollection, part)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// attribute rows grouped by the legacy note uid
	dataByUID := map[string]noteapp.NoteData{}
	for _, rec := range dataRecs {
		parts := strings.SplitN(rec.Row, legacyAttrDelimiter, 2)
		if len(parts) != 2 {
			continue
		}
		if dataByUID[parts[0]] == nil {
			dataByUID[parts[0]] = noteapp.NoteData{}
		}
		dataByUID[parts[0]][parts[1]] = string(rec.Value)
	}

	var out []migratedNote
	for _, rec := range noteRecs {
		var ln legacyNoteRecord
		if err := json.Unmarshal(rec.Value, &ln); err != nil {
			continue
		}

		secs, err := strconv.ParseInt(rec.Row, 10, 64)
		if err != nil {
			continue
		}

		out = append(out, migratedNote{
			title:   ln.Title,
			slug:    ln.Slug,
			blobURI: ln.BlobURI,
			date:    legacyRefDate.Add(-time.Duration(secs) * time.Second),
			data:    dataByUID[ln.UID],
		})
	}
	return out, nil
}

// Migrate reshapes a tenant's notes from the legacy partitioning scheme into
// the current one. Notes are copied as unpublished with fresh ids; for a
// published source partition the original publish timestamps are returned as
// signals so the caller can re-trigger publishing in the right chronology.
// Legacy rows are not deleted here — reclaiming them is the caller's second
// phase.
func (s *Service) Migrate(ctx context.Context, tenantID string, opts noteapp.MigrateOptions) ([]noteapp.PublishSignal, error) {
	reader := legacyReader{kv: s.store.kv}
	legacy, err := reader.read(ctx, tenantID, opts.Published)
	if err != nil {
		return nil, ErrStorageWrite("Migrate", err)
	}

	var oldFrag, newFrag string
	if strings.Contains(opts.ContainerReplacement, "=") {
		parts := strings.SplitN(opts.ContainerReplacement, "=", 2)
		oldFrag, newFrag = parts[0], parts[1]
	}

	var (
		noteOps []kv.BatchOp
		dataOps []kv.BatchOp
		signals []noteapp.PublishSignal
	)
	for _, ln := range legacy {
		n := &noteapp.Note{
			ID:       s.idGen.ID(),
			TenantID: tenantID,
			Title:    ln.title,
			Slug:     ln.slug,
			Date:     ln.date,
			BlobURI:  ln.blobURI,
		}
		if oldFrag != "" {
			n.BlobURI = strings.Replace(n.BlobURI, oldFrag, newFrag, 1)
		}

		rec, err := marshalNote(n)
		if err != nil {
			return nil, ErrStorageWrite("Migrate", err)
		}
		noteOps = append(noteOps, kv.BatchOp{Kind: kv.BatchInsert, Record: rec})

		for name, value := range ln.data {
			dataOps = append(dataOps, kv.BatchOp{
				Kind:   kv.BatchInsert,
				Record: dataRecord(tenantID, n.ID, name, value),
			})
		}

		if opts.Published {
			signals = append(signals, noteapp.PublishSignal{NoteID: n.ID, Date: ln.date})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.kv.Batch(gctx, NotesCollection, tenantID, noteOps)
	})
	g.Go(func() error {
		return s.store.kv.Batch(gctx, DataCollection, tenantID, dataOps)
	})
	if err := g.Wait(); err != nil {
		return nil, ErrStorageWrite("Migrate", err)
	}

	s.logger.Info("Legacy notes migrated",
		zap.String("tenant", tenantID),
		zap.Bool("published", opts.Published),
		zap.Int("notes", len(legacy)))
	return signals, nil
}
