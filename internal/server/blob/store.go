// Package blob stores thread attachments. Attachments are flat objects
// named "<title>-<filename>"; the interface is deliberately small so the
// data plane can stream against either the local data directory or an
// S3-compatible bucket.
package blob

import (
	"context"
	"io"
)

// Store is the attachment backend used by the file-transfer service and
// the thread store's removal path.
type Store interface {
	// Save streams r into the object named name, overwriting any
	// existing object. Callers are expected to check Exists first; the
	// window between the two is an accepted race of the protocol.
	Save(ctx context.Context, name string, r io.Reader) error

	// Open returns a reader over the named object, or common.ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Exists reports whether the named object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the named object.
	Delete(ctx context.Context, name string) error

	// ListPrefix returns the names of all objects starting with prefix.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}
