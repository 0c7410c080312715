package contentrepo

import (
	"encoding/base64"
	"strings"
)

// Data URL prefixes of the supported image encodings
const (
	DataURIPrefixGIF  = "data:image/gif;base64,"
	DataURIPrefixJPEG = "data:image/jpeg;base64,"
	DataURIPrefixPNG  = "data:image/png;base64,"
)

var dataURIPrefixes = []struct {
	prefix string
	ext    ImageFileExtension
}{
	{DataURIPrefixGIF, ImageExtensionGIF},
	{DataURIPrefixPNG, ImageExtensionPNG},
	{DataURIPrefixJPEG, ImageExtensionJPEG},
}

// ExtractImageFromDataURL splits a data URL into its base64 payload and
// file extension. Only gif, png and jpeg data URLs are accepted.
func ExtractImageFromDataURL(dataURL string) (Base64EncodedImage, error) {
	dataURL = strings.TrimSpace(dataURL)
	for _, p := range dataURIPrefixes {
		if strings.HasPrefix(dataURL, p.prefix) {
			return Base64EncodedImage{
				Base64EncodedString: strings.TrimPrefix(dataURL, p.prefix),
				FileExtension:       p.ext,
			}, nil
		}
	}
	return Base64EncodedImage{}, NewError(ErrInvalidImageType, "extract data URL", "", "data URL is not a gif, png or jpeg image")
}

// DataURIPrefix returns the data URL prefix for an image extension; anything
// other than gif or png maps to jpeg.
func DataURIPrefix(ext ImageFileExtension) string {
	switch ext {
	case ImageExtensionGIF:
		return DataURIPrefixGIF
	case ImageExtensionPNG:
		return DataURIPrefixPNG
	default:
		return DataURIPrefixJPEG
	}
}

// EncodeDataURL renders data as a data URL of the given encoding.
func EncodeDataURL(ext ImageFileExtension, data []byte) string {
	return DataURIPrefix(ext) + base64.StdEncoding.EncodeToString(data)
}

// decodeBase64 decodes standard base64 while ignoring line breaks and other
// whitespace, the way MIME encoders wrap their output.
func decodeBase64(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(cleaned)
}
