package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"

	"github.com/nfnt/resize"
	"github.com/tendant/content-repository/pkg/contentrepo"
)

// JPEGQuality is the encoder quality used for resized JPEG images
const JPEGQuality = 75

// Resizer produces bounded-size variants of stored images on demand.
// Variants are never persisted.
type Resizer struct {
	logger *slog.Logger
}

// NewResizer creates a resizer. A nil logger falls back to slog.Default().
func NewResizer(logger *slog.Logger) *Resizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resizer{logger: logger}
}

// Resize fits img inside maxWidth x maxHeight preserving its aspect ratio.
// Bounds <= 0 are unset and do not constrain that dimension. When only
// maxHeight is given the input is returned as is. Images are never upscaled;
// an image that already fits comes back with its original bytes.
//
// Read failures from the backend are returned. Decode and encode failures are
// logged and the original bytes are returned instead.
func (r *Resizer) Resize(ctx context.Context, img *contentrepo.ImageData, maxWidth, maxHeight int) (*contentrepo.ImageData, error) {
	if maxWidth <= 0 && maxHeight > 0 {
		return img, nil
	}

	data, err := img.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	resized, err := r.resizeBytes(data, img.Extension(), maxWidth, maxHeight)
	if err != nil {
		r.logger.Warn("resize failed, returning original image",
			"location", img.Location(),
			"max_width", maxWidth,
			"max_height", maxHeight,
			"error", err,
		)
		return img.WithContent(data), nil
	}

	return img.WithContent(resized), nil
}

// DataURL renders the image as a base64 data URL of its own encoding.
func (r *Resizer) DataURL(ctx context.Context, img *contentrepo.ImageData) (string, error) {
	data, err := img.Bytes(ctx)
	if err != nil {
		return "", err
	}
	return contentrepo.EncodeDataURL(img.Extension(), data), nil
}

func (r *Resizer) resizeBytes(data []byte, ext contentrepo.ImageFileExtension, maxWidth, maxHeight int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	newWidth, newHeight, ok := FitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)
	if !ok {
		return data, nil
	}

	scaled := resize.Resize(uint(newWidth), uint(newHeight), src, resize.Bilinear)
	target := compose(scaled, ext)

	var buf bytes.Buffer
	switch ext {
	case contentrepo.ImageExtensionGIF:
		err = gif.Encode(&buf, target, nil)
	case contentrepo.ImageExtensionPNG:
		err = png.Encode(&buf, target)
	default:
		err = jpeg.Encode(&buf, target, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", ext.WithoutDot(), err)
	}

	return buf.Bytes(), nil
}

// FitWithin computes the target size of a width x height image bounded by
// maxWidth x maxHeight. Bounds <= 0 are unconstrained. ok is false when the
// image already fits and needs no resampling.
func FitWithin(width, height, maxWidth, maxHeight int) (newWidth, newHeight int, ok bool) {
	widthFits := maxWidth <= 0 || width <= maxWidth
	heightFits := maxHeight <= 0 || height <= maxHeight
	if widthFits && heightFits {
		return width, height, false
	}

	var widthRatio, heightRatio float32
	if maxWidth > 0 {
		widthRatio = float32(width) / float32(maxWidth)
	}
	if maxHeight > 0 {
		heightRatio = float32(height) / float32(maxHeight)
	}
	scale := widthRatio
	if heightRatio > scale {
		scale = heightRatio
	}

	newWidth = max(int(float32(width)/scale), 1)
	newHeight = max(int(float32(height)/scale), 1)
	return newWidth, newHeight, true
}

// compose draws the scaled image onto the target pixel format: opaque RGB over
// black for JPEG, NRGBA with alpha for everything else.
func compose(scaled image.Image, ext contentrepo.ImageFileExtension) image.Image {
	b := scaled.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	if ext == contentrepo.ImageExtensionJPEG || ext == contentrepo.ImageExtensionJPG {
		dst := image.NewRGBA(rect)
		draw.Draw(dst, rect, image.Black, image.Point{}, draw.Src)
		draw.Draw(dst, rect, scaled, b.Min, draw.Over)
		return dst
	}

	dst := image.NewNRGBA(rect)
	draw.Draw(dst, rect, scaled, b.Min, draw.Src)
	return dst
}
