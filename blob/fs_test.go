package blob_test

import (
	"context"
	"testing"

	"github.com/noteapp/noteapp/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func NewTestFSStore(t *testing.T) *blob.FSStore {
	t.Helper()
	s := blob.NewFSStore(t.TempDir())
	s.WithLogger(zaptest.NewLogger(t))
	return s
}

func TestFSStore_UploadDownload(t *testing.T) {
	s := NewTestFSStore(t)
	ctx := context.Background()

	locator, err := s.Upload(ctx, "note-entries", "tenant1/abc.md", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "note-entries/tenant1/abc.md", locator)

	content, err := s.Download(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
}

func TestFSStore_LocatorIsLowercased(t *testing.T) {
	s := NewTestFSStore(t)
	ctx := context.Background()

	locator, err := s.Upload(ctx, "note-media", "Tenant1/Photo.PNG", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "note-media/tenant1/photo.png", locator)
	assert.Equal(t, locator, blob.Locator("note-media", "Tenant1/Photo.PNG"))
}

func TestFSStore_UploadReplaces(t *testing.T) {
	s := NewTestFSStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "note-entries", "tenant1/abc.md", []byte("one"))
	require.NoError(t, err)
	locator, err := s.Upload(ctx, "note-entries", "tenant1/abc.md", []byte("two"))
	require.NoError(t, err)

	content, err := s.Download(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), content)
}

func TestFSStore_DownloadMissing(t *testing.T) {
	s := NewTestFSStore(t)

	_, err := s.Download(context.Background(), "note-entries/tenant1/missing.md")
	assert.True(t, blob.IsNotFound(err))
}

func TestFSStore_DeleteIdempotent(t *testing.T) {
	s := NewTestFSStore(t)
	ctx := context.Background()

	locator, err := s.Upload(ctx, "note-entries", "tenant1/abc.md", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, locator))
	require.NoError(t, s.Delete(ctx, locator))

	_, err = s.Download(ctx, locator)
	assert.True(t, blob.IsNotFound(err))
}

func TestFSStore_RejectsPathTraversal(t *testing.T) {
	s := NewTestFSStore(t)

	_, err := s.Download(context.Background(), "../../../etc/passwd")
	require.Error(t, err)
	assert.False(t, blob.IsNotFound(err))
}
