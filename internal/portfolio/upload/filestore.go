// Package upload stores project artifacts and cover images on disk.
// Stored names are generated server-side (ULID plus the original
// extension) so client-supplied filenames never touch the filesystem.
package upload

import (
	"errors"
	"io"
)

var ErrNotFound = errors.New("upload: file not found")

// Kind selects which bucket a file lands in.
type Kind string

const (
	KindProject Kind = "project"
	KindCover   Kind = "cover"
)

// FileStore persists uploaded files. Implementations must be safe for
// concurrent use.
type FileStore interface {
	// Save writes the file under a freshly generated stored name and
	// returns that name. originalName is only used for its extension.
	Save(kind Kind, originalName string, r io.Reader) (string, error)

	// Open returns the stored file for reading along with its size.
	Open(kind Kind, storedName string) (io.ReadSeekCloser, int64, error)

	// Remove deletes a stored file. Removing a missing file is not an
	// error.
	Remove(kind Kind, storedName string) error
}
