// Package media manages tenant-owned binary assets. Media items are simple
// CRUD records plus a blob; they do not take part in the note lifecycle.
package media

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/blob"
	"github.com/noteapp/noteapp/kv"
)

const (
	// Collection holds media records: partition = tenant, row = media id.
	Collection = "media"

	// DefaultContainer is the default media blob container.
	DefaultContainer = "note-media"
)

// Service is a kv- and blob-backed MediaService.
type Service struct {
	store     kv.Store
	blobs     blob.Store
	container string
	idGen     noteapp.IDGenerator
	logger    *zap.Logger
}

var _ noteapp.MediaService = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithContainer sets the media blob container name.
func WithContainer(name string) ServiceOption {
	return func(s *Service) {
		s.container = name
	}
}

// WithIDGenerator sets the media id generator.
func WithIDGenerator(g noteapp.IDGenerator) ServiceOption {
	return func(s *Service) {
		s.idGen = g
	}
}

// WithLogger sets the logger on the service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService returns a media service over the given stores.
func NewService(store kv.Store, blobs blob.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		blobs:     blobs,
		container: DefaultContainer,
		idGen:     noteapp.NewIDGenerator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mediaRecord is the persisted shape of a media item.
type mediaRecord struct {
	Name    string `json:"name"`
	BlobURI string `json:"blobUri"`
}

// FindMedia returns a tenant's media items.
func (s *Service) FindMedia(ctx context.Context, tenantID string) ([]*noteapp.MediaItem, error) {
	recs, err := s.store.Scan(ctx, Collection, tenantID)
	if err != nil {
		return nil, ErrStorageWrite("FindMedia", err)
	}

	items := make([]*noteapp.MediaItem, 0, len(recs))
	for _, rec := range recs {
		var r mediaRecord
		if err := json.Unmarshal(rec.Value, &r); err != nil {
			continue
		}
		items = append(items, &noteapp.MediaItem{
			ID:       rec.Row,
			TenantID: rec.Partition,
			Name:     r.Name,
			BlobURI:  r.BlobURI,
		})
	}
	return items, nil
}

// CreateMedia uploads the content and inserts the media record. The two
// writes have no ordering dependency, so they are issued concurrently.
func (s *Service) CreateMedia(ctx context.Context, tenantID, name string, content []byte) (*noteapp.MediaItem, error) {
	blobName := tenantID + "/" + name

	item := &noteapp.MediaItem{
		ID:       s.idGen.ID(),
		TenantID: tenantID,
		Name:     name,
		BlobURI:  blob.Locator(s.container, blobName),
	}

	v, err := json.Marshal(mediaRecord{Name: item.Name, BlobURI: item.BlobURI})
	if err != nil {
		return nil, ErrStorageWrite("CreateMedia", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.blobs.Upload(gctx, s.container, blobName, content)
		return err
	})
	g.Go(func() error {
		return s.store.Insert(gctx, Collection, kv.Record{
			Partition: tenantID,
			Row:       item.ID,
			Value:     v,
		})
	})
	if err := g.Wait(); err != nil {
		return nil, ErrStorageWrite("CreateMedia", err)
	}

	s.logger.Info("Media uploaded", zap.String("tenant", tenantID), zap.String("media", item.ID))
	return item, nil
}

// DeleteMedia removes the record and its blob. A failed record delete aborts
// before the blob is touched.
func (s *Service) DeleteMedia(ctx context.Context, tenantID, id string) error {
	rec, err := s.store.Get(ctx, Collection, tenantID, id)
	if kv.IsNotFound(err) {
		return ErrMediaNotFound
	}
	if err != nil {
		return ErrStorageWrite("DeleteMedia", err)
	}

	var r mediaRecord
	if err := json.Unmarshal(rec.Value, &r); err != nil {
		return ErrStorageWrite("DeleteMedia", err)
	}

	if err := s.store.Delete(ctx, Collection, *rec); err != nil {
		return ErrStorageWrite("DeleteMedia", err)
	}

	if r.BlobURI != "" {
		if err := s.blobs.Delete(ctx, r.BlobURI); err != nil {
			return ErrStorageWrite("DeleteMedia", err)
		}
	}

	s.logger.Info("Media deleted", zap.String("tenant", tenantID), zap.String("media", id))
	return nil
}
