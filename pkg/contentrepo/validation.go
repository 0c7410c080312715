package contentrepo

import (
	"fmt"
	"io"
	"mime"
	"strings"
)

// DefaultMaxFileSize is the upload limit used when none is configured (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

var imageMIMETypes = map[string]bool{
	MIMETypeGIF:  true,
	MIMETypeJPEG: true,
	MIMETypePNG:  true,
}

// Entity types that may own images
const (
	EntityTypeClients = "clients"
	EntityTypeStaff   = "staff"
)

// Validator performs the stateless checks that run before any write.
type Validator struct {
	MaxFileSize int64
}

// NewValidator returns a Validator with the given limit in bytes.
// A non-positive limit falls back to DefaultMaxFileSize.
func NewValidator(maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{MaxFileSize: maxFileSize}
}

// CheckSize fails with ErrFileTooLarge when size exceeds the limit.
// A negative size means the size is unknown and is not checked.
func (v *Validator) CheckSize(size int64, name string) error {
	if size < 0 {
		return nil
	}
	if size > v.MaxFileSize {
		return NewError(ErrFileTooLarge, "validate", name,
			fmt.Sprintf("size %d bytes exceeds %d bytes limit", size, v.MaxFileSize))
	}
	return nil
}

// CheckNotEmpty fails with ErrEmptyFile when the name or the stream is absent.
func (v *Validator) CheckNotEmpty(name string, reader io.Reader) error {
	if strings.TrimSpace(name) == "" || reader == nil {
		return NewError(ErrEmptyFile, "validate", name, "file name or content is missing")
	}
	return nil
}

// CheckImageMIMEType fails with ErrInvalidImageType unless the MIME type is
// one of image/gif, image/jpeg or image/png. Media type parameters are ignored.
func (v *Validator) CheckImageMIMEType(mimeType string) error {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	if !imageMIMETypes[mediaType] {
		return NewError(ErrInvalidImageType, "validate", mimeType, "MIME type is not an allowed image type")
	}
	return nil
}

// CheckImageEntityType fails with ErrInvalidEntityType unless entity is
// clients or staff, compared case-insensitively.
func (v *Validator) CheckImageEntityType(entity string) error {
	switch strings.ToLower(entity) {
	case EntityTypeClients, EntityTypeStaff:
		return nil
	}
	return NewError(ErrInvalidEntityType, "validate", entity, "entity type does not support images")
}

// CheckPathSegment fails with ErrInvalidPath unless segment can stand as a
// single path element: non-blank, not "." or "..", and free of separators.
func (v *Validator) CheckPathSegment(segment string) error {
	switch strings.TrimSpace(segment) {
	case "", ".", "..":
		return NewError(ErrInvalidPath, "validate", segment, "path segment is empty or relative")
	}
	if strings.ContainsAny(segment, `/\`) {
		return NewError(ErrInvalidPath, "validate", segment, "path segment contains a separator")
	}
	return nil
}
