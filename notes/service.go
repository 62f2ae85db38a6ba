// Package notes implements the note lifecycle engine: create, edit, delete,
// publish and unpublish over a partitioned record store and a blob content
// store.
//
// There is no cross-store transaction. Consistency relies entirely on
// completion ordering: new content is uploaded before the record that points
// at it is written, and old content is deleted only after the record stops
// pointing at it. A crash between steps can orphan a blob but can never
// leave a note referencing a deleted one. Orphaned blobs are not reclaimed.
package notes

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/blob"
)

// Default blob container names.
const (
	DefaultDraftContainer   = "note-entries"
	DefaultPublishContainer = "note-publish"
)

// Service is the note lifecycle engine.
type Service struct {
	store *Store
	blobs blob.Store

	idGen            noteapp.IDGenerator
	clock            clock.Clock
	logger           *zap.Logger
	draftContainer   string
	publishContainer string
}

var _ noteapp.NoteService = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithIDGenerator sets the note id generator.
func WithIDGenerator(g noteapp.IDGenerator) ServiceOption {
	return func(s *Service) {
		s.idGen = g
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger on the service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithContainers sets the draft and publish container names.
func WithContainers(draft, publish string) ServiceOption {
	return func(s *Service) {
		s.draftContainer = draft
		s.publishContainer = publish
	}
}

// NewService returns a note lifecycle engine over the given stores.
func NewService(store *Store, blobs blob.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:            store,
		blobs:            blobs,
		idGen:            noteapp.NewIDGenerator(),
		clock:            clock.New(),
		logger:           zap.NewNop(),
		draftContainer:   DefaultDraftContainer,
		publishContainer: DefaultPublishContainer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindNotes returns a tenant's notes and attribute sets. The note scan and
// the attribute scan are independent and run concurrently.
func (s *Service) FindNotes(ctx context.Context, tenantID string) ([]*noteapp.Note, map[string]noteapp.NoteData, error) {
	var (
		ns   []*noteapp.Note
		data map[string]noteapp.NoteData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ns, err = s.store.ListNotes(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		data, err = s.store.ListNoteData(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, ErrStorageWrite("FindNotes", err)
	}

	return ns, data, nil
}

// FindNote returns a single note, its attributes and its draft content.
func (s *Service) FindNote(ctx context.Context, tenantID, id string) (*noteapp.Note, noteapp.NoteData, string, error) {
	n, data, err := s.getNote(ctx, tenantID, id)
	if err != nil {
		return nil, nil, "", err
	}

	var content string
	if n.BlobURI != "" {
		b, err := s.blobs.Download(ctx, n.BlobURI)
		if err != nil {
			return nil, nil, "", ErrStorageWrite("FindNote", err)
		}
		content = string(b)
	}

	return n, data, content, nil
}

// CreateNote uploads the content and inserts a new draft note. If the upload
// succeeds but the record insert fails, the orphaned blob is left behind; it
// is reported as a failure and not compensated.
func (s *Service) CreateNote(ctx context.Context, tenantID string, create noteapp.NoteCreate) (*noteapp.Note, error) {
	date := s.clock.Now()

	locator, err := s.blobs.Upload(ctx, s.draftContainer, draftName(tenantID, date, create.Slug, create.Format), []byte(create.Content))
	if err != nil {
		return nil, ErrStorageWrite("CreateNote", err)
	}

	n := &noteapp.Note{
		ID:       s.idGen.ID(),
		TenantID: tenantID,
		Title:    create.Title,
		Slug:     create.Slug,
		Date:     date,
		BlobURI:  locator,
	}
	if err := s.store.InsertNote(ctx, n); err != nil {
		return nil, ErrStorageWrite("CreateNote", err)
	}

	if err := s.store.InsertData(ctx, tenantID, n.ID, create.Data); err != nil {
		return nil, ErrStorageWrite("CreateNote", err)
	}

	s.logger.Info("Note created", zap.String("tenant", tenantID), zap.String("note", n.ID))
	return n, nil
}

// UpdateNote replaces the note's content, metadata and attribute set. The
// new content is uploaded before the record is replaced, and the previous
// blob is deleted only afterwards, and only when its locator changed.
func (s *Service) UpdateNote(ctx context.Context, tenantID, id string, upd noteapp.NoteUpdate) (*noteapp.Note, error) {
	n, oldData, err := s.getNote(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	oldURI := n.BlobURI

	locator, err := s.blobs.Upload(ctx, s.draftContainer, draftName(tenantID, n.Date, upd.Slug, upd.Format), []byte(upd.Content))
	if err != nil {
		return nil, ErrStorageWrite("UpdateNote", err)
	}

	n.Title = upd.Title
	n.Slug = upd.Slug
	n.BlobURI = locator
	if err := s.store.ReplaceNote(ctx, n); err != nil {
		return nil, ErrStorageWrite("UpdateNote", err)
	}

	if err := s.store.ReconcileData(ctx, tenantID, id, upd.Data, oldData); err != nil {
		return nil, ErrStorageWrite("UpdateNote", err)
	}

	if oldURI != "" && !strings.EqualFold(locator, oldURI) {
		if err := s.blobs.Delete(ctx, oldURI); err != nil {
			// The record no longer points at the old blob; a failed delete
			// only leaks it.
			s.logger.Warn("Stale draft blob not deleted", zap.String("locator", oldURI), zap.Error(err))
		}
	}

	return n, nil
}

// DeleteNote removes the note record, its attribute rows and both content
// blobs. A failed record delete aborts before anything else is touched.
func (s *Service) DeleteNote(ctx context.Context, tenantID, id string) error {
	n, data, err := s.getNote(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteNote(ctx, n); err != nil {
		return ErrStorageWrite("DeleteNote", err)
	}

	if err := s.store.DeleteData(ctx, tenantID, id, data); err != nil {
		return ErrStorageWrite("DeleteNote", err)
	}

	var blobErr error
	if n.BlobURI != "" {
		blobErr = multierr.Append(blobErr, s.blobs.Delete(ctx, n.BlobURI))
	}
	if n.PublishedBlobURI != "" {
		blobErr = multierr.Append(blobErr, s.blobs.Delete(ctx, n.PublishedBlobURI))
	}
	if blobErr != nil {
		return ErrStorageWrite("DeleteNote", blobErr)
	}

	s.logger.Info("Note deleted", zap.String("tenant", tenantID), zap.String("note", id))
	return nil
}

// PublishNote renders the publish artifact from the draft content and the
// note's attributes, uploads it and sets the published flag. Publishing an
// already-published note re-renders the artifact; the flag stays set.
func (s *Service) PublishNote(ctx context.Context, tenantID, id string, format noteapp.PublishFormat, date time.Time) (*noteapp.Note, error) {
	n, data, err := s.getNote(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(n.Slug) == "" {
		return nil, ErrSlugRequired
	}

	var content string
	if n.BlobURI != "" {
		b, err := s.blobs.Download(ctx, n.BlobURI)
		if err != nil {
			return nil, ErrStorageWrite("PublishNote", err)
		}
		content = string(b)
	}

	if date.IsZero() {
		date = s.clock.Now()
	}

	artifact := renderArtifact(format, n, data, content)
	locator, err := s.blobs.Upload(ctx, s.publishContainer, publishName(format, tenantID, date, n), []byte(artifact))
	if err != nil {
		return nil, ErrStorageWrite("PublishNote", err)
	}

	n.PublishedBlobURI = locator
	n.Published = true
	if err := s.store.ReplaceNote(ctx, n); err != nil {
		return nil, ErrStorageWrite("PublishNote", err)
	}

	s.logger.Info("Note published", zap.String("tenant", tenantID), zap.String("note", id), zap.String("locator", locator))
	return n, nil
}

// UnpublishNote deletes the publish artifact and clears the published flag.
func (s *Service) UnpublishNote(ctx context.Context, tenantID, id string) (*noteapp.Note, error) {
	n, err := s.store.GetNote(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if n.PublishedBlobURI != "" {
		if err := s.blobs.Delete(ctx, n.PublishedBlobURI); err != nil {
			return nil, ErrStorageWrite("UnpublishNote", err)
		}
	}

	n.PublishedBlobURI = ""
	n.Published = false
	if err := s.store.ReplaceNote(ctx, n); err != nil {
		return nil, ErrStorageWrite("UnpublishNote", err)
	}

	s.logger.Info("Note unpublished", zap.String("tenant", tenantID), zap.String("note", id))
	return n, nil
}

// getNote fetches a note and its attribute set concurrently.
func (s *Service) getNote(ctx context.Context, tenantID, id string) (*noteapp.Note, noteapp.NoteData, error) {
	var (
		n    *noteapp.Note
		data noteapp.NoteData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		n, err = s.store.GetNote(gctx, tenantID, id)
		return err
	})
	g.Go(func() (err error) {
		data, err = s.store.GetNoteData(gctx, tenantID, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return n, data, nil
}
