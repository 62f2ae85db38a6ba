package noteapp

import "context"

// MediaItem is a tenant-owned binary asset, independent of any note.
type MediaItem struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	BlobURI  string `json:"blobUri"`
}

// MediaService manages a tenant's media items.
type MediaService interface {
	FindMedia(ctx context.Context, tenantID string) ([]*MediaItem, error)
	CreateMedia(ctx context.Context, tenantID, name string, content []byte) (*MediaItem, error)
	DeleteMedia(ctx context.Context, tenantID, id string) error
}
