package blob

import (
	"context"
	"errors"
	"strings"
)

// ErrBlobNotFound is the error returned when a locator does not resolve.
var ErrBlobNotFound = errors.New("blob not found")

// IsNotFound reports whether err is the store's not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBlobNotFound)
}

// Store holds opaque text payloads in named containers. Names are
// case-normalized; a second upload to the same name overwrites. There is no
// versioning.
type Store interface {
	// Upload stores content under container/name and returns the locator.
	Upload(ctx context.Context, container, name string, content []byte) (string, error)

	// Download fetches the content at the locator, or ErrBlobNotFound.
	Download(ctx context.Context, locator string) ([]byte, error)

	// Delete removes the blob at the locator. Deleting a missing blob is
	// not an error.
	Delete(ctx context.Context, locator string) error
}

// Locator builds the canonical locator for a container and name.
func Locator(container, name string) string {
	return container + "/" + strings.ToLower(name)
}
