package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FSStore is a Store backed by the local filesystem. Containers are
// directories under the root; the locator is the container-rooted relative
// path. Writes go through a temp file and rename so a partially written
// blob is never visible.
type FSStore struct {
	root   string
	logger *zap.Logger
}

var _ Store = (*FSStore)(nil)

// NewFSStore returns a Store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{
		root:   dir,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger on the store.
func (s *FSStore) WithLogger(l *zap.Logger) {
	s.logger = l
}

func (s *FSStore) path(locator string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(locator))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob locator %q", locator)
	}
	return filepath.Join(s.root, clean), nil
}

// Upload writes content under container/name and returns the locator.
func (s *FSStore) Upload(ctx context.Context, container, name string, content []byte) (string, error) {
	locator := Locator(container, name)
	p, err := s.path(locator)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return "", fmt.Errorf("unable to create directory %s: %v", filepath.Dir(p), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", err
	}

	s.logger.Debug("Blob uploaded", zap.String("locator", locator), zap.Int("bytes", len(content)))
	return locator, nil
}

// Download reads the content at the locator.
func (s *FSStore) Download(ctx context.Context, locator string) ([]byte, error) {
	p, err := s.path(locator)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the blob at the locator, ignoring blobs that are already gone.
func (s *FSStore) Delete(ctx context.Context, locator string) error {
	p, err := s.path(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
