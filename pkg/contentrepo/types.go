package contentrepo

import (
	"io"
	"strings"
)

// Path categories
const (
	CategoryDocuments = "documents"
	CategoryImages    = "images"
)

// ImageFileExtension is the encoding of a stored image, including the dot.
type ImageFileExtension string

const (
	ImageExtensionGIF  ImageFileExtension = ".gif"
	ImageExtensionJPG  ImageFileExtension = ".jpg"
	ImageExtensionJPEG ImageFileExtension = ".jpeg"
	ImageExtensionPNG  ImageFileExtension = ".png"
)

// WithoutDot returns the extension as an image format name, e.g. "png".
func (e ImageFileExtension) WithoutDot() string {
	return strings.TrimPrefix(string(e), ".")
}

// MIMEType returns the MIME type for the extension. Unknown extensions map to JPEG.
func (e ImageFileExtension) MIMEType() string {
	switch e {
	case ImageExtensionGIF:
		return MIMETypeGIF
	case ImageExtensionPNG:
		return MIMETypePNG
	default:
		return MIMETypeJPEG
	}
}

// Allowed image MIME types
const (
	MIMETypeGIF  = "image/gif"
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

// ImageFileExtensionFromName infers the encoding of an image from its name or
// location. The checks run in a fixed order and the first match wins: a
// lower-cased ".gif" suffix, then a ".png" suffix compared as given, then
// JPEG. The case asymmetry is relied on by existing stored content.
func ImageFileExtensionFromName(name string) ImageFileExtension {
	if strings.HasSuffix(strings.ToLower(name), string(ImageExtensionGIF)) {
		return ImageExtensionGIF
	}
	if strings.HasSuffix(name, string(ImageExtensionPNG)) {
		return ImageExtensionPNG
	}
	return ImageExtensionJPEG
}

// Base64EncodedImage is an image payload extracted from a data URL.
type Base64EncodedImage struct {
	Base64EncodedString string
	FileExtension       ImageFileExtension
}

// SaveDocumentRequest contains parameters for storing a document
type SaveDocumentRequest struct {
	Reader           io.Reader
	ParentEntityType string
	ParentEntityID   int64
	Size             int64 // Declared size in bytes, negative if unknown
	FileName         string
}

// SaveImageRequest contains parameters for storing an entity image
type SaveImageRequest struct {
	Reader     io.Reader
	ResourceID int64
	ImageName  string
	Size       int64  // Declared size in bytes, negative if unknown
	MimeType   string // Optional; checked against the image allow-list when set
}
