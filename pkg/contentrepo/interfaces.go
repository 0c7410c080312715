package contentrepo

import (
	"context"
	"io"
)

// StorageBackend defines the byte-level persistence contract every storage
// variant satisfies. Paths are logical, slash-separated locators relative to
// the namespace.
type StorageBackend interface {
	// Write persists the stream at path, creating intermediate grouping and
	// overwriting any existing content.
	Write(ctx context.Context, namespace, path string, reader io.Reader) error

	// Read returns the content at path. The caller must close the reader.
	Read(ctx context.Context, namespace, path string) (io.ReadCloser, error)

	// Delete removes the content at path. Deleting a missing path fails with ErrNotFound.
	Delete(ctx context.Context, namespace, path string) error
}

// StorageType identifies the kind of backend a repository writes to.
// The numeric values are stable and may be persisted by metadata stores.
type StorageType int

const (
	StorageTypeFileSystem StorageType = 1
	StorageTypeS3         StorageType = 2
)

func (t StorageType) String() string {
	switch t {
	case StorageTypeFileSystem:
		return "FILE_SYSTEM"
	case StorageTypeS3:
		return "S3"
	default:
		return "UNKNOWN"
	}
}
