package contentrepo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tendant/content-repository/pkg/contentrepo/objectkey"
)

// ContentRepository stores and retrieves documents and entity images.
type ContentRepository interface {
	SaveDocument(ctx context.Context, namespace string, req SaveDocumentRequest) (string, error)
	SaveImage(ctx context.Context, namespace string, req SaveImageRequest) (string, error)
	SaveImageBase64(ctx context.Context, namespace string, image Base64EncodedImage, resourceID int64, imageName string) (string, error)
	FetchDocument(namespace, path, fileName, contentType string) *FileData
	FetchImage(namespace, path, displayName string) *ImageData
	DeleteDocument(ctx context.Context, namespace, path string) error
	DeleteImage(ctx context.Context, namespace, path string) error
	StorageType() StorageType
}

// Repository implements ContentRepository on top of a single StorageBackend.
// It holds no mutable state and is safe for concurrent use when the backend is.
type Repository struct {
	backend     StorageBackend
	storageType StorageType
	validator   *Validator
	keys        objectkey.Generator
	logger      *slog.Logger
}

// Option represents a functional option for configuring the repository
type Option func(*Repository)

// WithBackend sets the storage backend and the storage type it reports
func WithBackend(backend StorageBackend, storageType StorageType) Option {
	return func(r *Repository) {
		r.backend = backend
		r.storageType = storageType
	}
}

// WithValidator sets the upload validator
func WithValidator(v *Validator) Option {
	return func(r *Repository) {
		r.validator = v
	}
}

// WithMaxFileSize sets the upload limit in bytes
func WithMaxFileSize(maxBytes int64) Option {
	return func(r *Repository) {
		r.validator = NewValidator(maxBytes)
	}
}

// WithKeyGenerator sets the path layout strategy
func WithKeyGenerator(g objectkey.Generator) Option {
	return func(r *Repository) {
		r.keys = g
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a repository with the given options. A backend is required.
func New(options ...Option) (*Repository, error) {
	r := &Repository{
		validator: NewValidator(DefaultMaxFileSize),
		keys:      objectkey.NewLegacyGenerator(),
		logger:    slog.Default(),
	}

	for _, option := range options {
		option(r)
	}

	if r.backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}

	return r, nil
}

// SaveDocument stores a document under a fresh random path and returns the path.
func (r *Repository) SaveDocument(ctx context.Context, namespace string, req SaveDocumentRequest) (string, error) {
	if err := r.checkNamespace(namespace, "save document"); err != nil {
		return "", err
	}
	if err := r.validator.CheckNotEmpty(req.FileName, req.Reader); err != nil {
		return "", err
	}
	if err := r.validator.CheckPathSegment(req.ParentEntityType); err != nil {
		return "", err
	}
	if err := r.validator.CheckSize(req.Size, req.FileName); err != nil {
		return "", err
	}

	path := r.keys.DocumentKey(req.ParentEntityType, req.ParentEntityID)
	if err := r.backend.Write(ctx, namespace, path, req.Reader); err != nil {
		return "", r.backendFailure("save document", namespace, path, err)
	}

	r.logger.Debug("document saved", "namespace", namespace, "path", path, "file_name", req.FileName)
	return path, nil
}

// SaveImage stores an entity image at images/clients/{resourceId}/{imageName}.
// Saving the same image name again overwrites the previous content.
func (r *Repository) SaveImage(ctx context.Context, namespace string, req SaveImageRequest) (string, error) {
	if err := r.checkNamespace(namespace, "save image"); err != nil {
		return "", err
	}
	if err := r.validator.CheckNotEmpty(req.ImageName, req.Reader); err != nil {
		return "", err
	}
	if err := r.validator.CheckPathSegment(req.ImageName); err != nil {
		return "", err
	}
	if req.MimeType != "" {
		if err := r.validator.CheckImageMIMEType(req.MimeType); err != nil {
			return "", err
		}
	}
	if err := r.validator.CheckSize(req.Size, req.ImageName); err != nil {
		return "", err
	}

	path := r.keys.ImageKey(req.ResourceID, req.ImageName)
	if err := r.backend.Write(ctx, namespace, path, req.Reader); err != nil {
		return "", r.backendFailure("save image", namespace, path, err)
	}

	r.logger.Debug("image saved", "namespace", namespace, "path", path)
	return path, nil
}

// SaveImageBase64 decodes the payload and stores it as imageName plus the
// payload's extension. The decoded length is what gets validated and stored.
func (r *Repository) SaveImageBase64(ctx context.Context, namespace string, image Base64EncodedImage, resourceID int64, imageName string) (string, error) {
	data, err := decodeBase64(image.Base64EncodedString)
	if err != nil {
		return "", &ContentError{
			Kind:    ErrInvalidImageType,
			Op:      "save image",
			Path:    imageName,
			Message: "payload is not valid base64",
			Err:     err,
		}
	}
	if len(data) == 0 {
		return "", NewError(ErrEmptyFile, "save image", imageName, "decoded payload is empty")
	}

	return r.SaveImage(ctx, namespace, SaveImageRequest{
		Reader:     bytes.NewReader(data),
		ResourceID: resourceID,
		ImageName:  imageName + string(image.FileExtension),
		Size:       int64(len(data)),
	})
}

// FetchDocument returns a descriptor bound to the stored document. The
// backend is not touched until the descriptor is read, so a missing path
// surfaces as ErrNotFound from Open or Bytes.
func (r *Repository) FetchDocument(namespace, path, fileName, contentType string) *FileData {
	return &FileData{
		location:    path,
		fileName:    fileName,
		contentType: contentType,
		open:        r.opener(namespace, path),
	}
}

// FetchImage returns a lazy descriptor bound to the stored image.
func (r *Repository) FetchImage(namespace, path, displayName string) *ImageData {
	return &ImageData{
		location:    path,
		displayName: displayName,
		extension:   ImageFileExtensionFromName(path),
		open:        r.opener(namespace, path),
	}
}

// DeleteDocument removes a stored document.
func (r *Repository) DeleteDocument(ctx context.Context, namespace, path string) error {
	if err := r.checkNamespace(namespace, "delete document"); err != nil {
		return err
	}
	if err := r.backend.Delete(ctx, namespace, path); err != nil {
		return r.backendFailure("delete document", namespace, path, err)
	}
	return nil
}

// DeleteImage removes a stored image.
func (r *Repository) DeleteImage(ctx context.Context, namespace, path string) error {
	if err := r.checkNamespace(namespace, "delete image"); err != nil {
		return err
	}
	if err := r.backend.Delete(ctx, namespace, path); err != nil {
		return r.backendFailure("delete image", namespace, path, err)
	}
	return nil
}

func (r *Repository) StorageType() StorageType {
	return r.storageType
}

func (r *Repository) checkNamespace(namespace, op string) error {
	if namespace == "" {
		return NewError(ErrEmptyNamespace, op, "", "namespace is required")
	}
	return nil
}

func (r *Repository) opener(namespace, path string) opener {
	read := backendOpener(r.backend, namespace, path)
	return func(ctx context.Context) (io.ReadCloser, error) {
		if namespace == "" {
			return nil, NewError(ErrEmptyNamespace, "read", path, "namespace is required")
		}
		rc, err := read(ctx)
		if err != nil {
			return nil, r.backendFailure("read", namespace, path, err)
		}
		return rc, nil
	}
}

// backendFailure passes ContentErrors through and wraps anything else as ErrBackendIO.
func (r *Repository) backendFailure(op, namespace, path string, err error) error {
	return StorageFailure(r.logger, r.storageType.String(), op, namespace, path, ErrBackendIO, err)
}

var _ ContentRepository = (*Repository)(nil)
