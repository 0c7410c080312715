package contentrepo

import (
	"bytes"
	"context"
	"io"
)

type opener func(ctx context.Context) (io.ReadCloser, error)

func backendOpener(backend StorageBackend, namespace, path string) opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return backend.Read(ctx, namespace, path)
	}
}

func bytesOpener(data []byte) opener {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func readAll(ctx context.Context, open opener) ([]byte, error) {
	rc, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// FileData describes a stored document. Nothing is read from the backend
// until Open or Bytes is called.
type FileData struct {
	location    string
	fileName    string
	contentType string
	open        opener
}

func (f *FileData) Location() string    { return f.location }
func (f *FileData) FileName() string    { return f.fileName }
func (f *FileData) ContentType() string { return f.contentType }

// Open returns a fresh reader over the document. The caller must close it.
func (f *FileData) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.open(ctx)
}

// Bytes reads the whole document.
func (f *FileData) Bytes(ctx context.Context) ([]byte, error) {
	return readAll(ctx, f.open)
}

// ImageData describes a stored image or a transient variant of one.
// The encoding is inferred from the location with ImageFileExtensionFromName.
type ImageData struct {
	location    string
	displayName string
	extension   ImageFileExtension
	open        opener
}

// NewImageData returns an image descriptor backed by data.
func NewImageData(location, displayName string, data []byte) *ImageData {
	return &ImageData{
		location:    location,
		displayName: displayName,
		extension:   ImageFileExtensionFromName(location),
		open:        bytesOpener(data),
	}
}

// WithContent returns a new descriptor for the same image backed by data.
// The receiver is left untouched.
func (i *ImageData) WithContent(data []byte) *ImageData {
	return &ImageData{
		location:    i.location,
		displayName: i.displayName,
		extension:   i.extension,
		open:        bytesOpener(data),
	}
}

func (i *ImageData) Location() string              { return i.location }
func (i *ImageData) DisplayName() string           { return i.displayName }
func (i *ImageData) Extension() ImageFileExtension { return i.extension }
func (i *ImageData) ContentType() string           { return i.extension.MIMEType() }

// Open returns a fresh reader over the image. The caller must close it.
func (i *ImageData) Open(ctx context.Context) (io.ReadCloser, error) {
	return i.open(ctx)
}

// Bytes reads the whole image.
func (i *ImageData) Bytes(ctx context.Context) ([]byte, error) {
	return readAll(ctx, i.open)
}
