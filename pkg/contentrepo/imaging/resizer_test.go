package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-repository/pkg/contentrepo"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img, format
}

func TestResize_DownscalesJPEG(t *testing.T) {
	ctx := context.Background()
	r := NewResizer(nil)
	original := encodeJPEG(t, 400, 200)
	img := contentrepo.NewImageData("images/clients/7/photo.jpeg", "photo", original)

	resized, err := r.Resize(ctx, img, 100, 100)
	require.NoError(t, err)

	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	out, format := decode(t, data)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())
	assert.Equal(t, "images/clients/7/photo.jpeg", resized.Location())
	assert.Equal(t, "photo", resized.DisplayName())
	assert.Equal(t, contentrepo.MIMETypeJPEG, resized.ContentType())

	again, err := r.Resize(ctx, img, 100, 100)
	require.NoError(t, err)
	againData, err := again.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, againData, "re-encoding must be deterministic")

	// the source descriptor still serves the original bytes
	src, err := img.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, src)
}

func TestResize_FittingImageIsReturnedVerbatim(t *testing.T) {
	ctx := context.Background()
	original := encodePNG(t, gradient(50, 50))
	img := contentrepo.NewImageData("images/clients/1/logo.png", "logo", original)

	resized, err := NewResizer(nil).Resize(ctx, img, 200, 200)
	require.NoError(t, err)

	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestResize_Passthrough(t *testing.T) {
	ctx := context.Background()
	original := encodeJPEG(t, 300, 300)
	img := contentrepo.NewImageData("images/clients/1/big.jpeg", "big", original)

	resized, err := NewResizer(nil).Resize(ctx, img, 0, 100)
	require.NoError(t, err)
	assert.Same(t, img, resized)

	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestResize_UnsetHeightIsUnconstrained(t *testing.T) {
	ctx := context.Background()
	img := contentrepo.NewImageData("images/clients/1/big.jpeg", "big", encodeJPEG(t, 300, 300))

	resized, err := NewResizer(nil).Resize(ctx, img, 100, 0)
	require.NoError(t, err)

	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	out, _ := decode(t, data)
	assert.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())
}

func TestResize_BothBoundsUnset(t *testing.T) {
	ctx := context.Background()
	original := encodeJPEG(t, 64, 32)
	img := contentrepo.NewImageData("images/clients/1/a.jpeg", "a", original)

	resized, err := NewResizer(nil).Resize(ctx, img, 0, 0)
	require.NoError(t, err)
	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestResize_PNGKeepsAlpha(t *testing.T) {
	ctx := context.Background()
	src := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			src.Set(x, y, color.NRGBA{R: 255, A: 0})
		}
	}
	img := contentrepo.NewImageData("images/clients/1/clear.png", "clear", encodePNG(t, src))

	resized, err := NewResizer(nil).Resize(ctx, img, 50, 50)
	require.NoError(t, err)
	data, err := resized.Bytes(ctx)
	require.NoError(t, err)

	out, format := decode(t, data)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 50, 25), out.Bounds())
	_, _, _, a := out.At(10, 10).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestResize_GIF(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, gradient(120, 60), nil))
	img := contentrepo.NewImageData("images/clients/1/anim.GIF", "anim", buf.Bytes())
	assert.Equal(t, contentrepo.ImageExtensionGIF, img.Extension())

	resized, err := NewResizer(nil).Resize(ctx, img, 60, 60)
	require.NoError(t, err)
	data, err := resized.Bytes(ctx)
	require.NoError(t, err)

	out, format := decode(t, data)
	assert.Equal(t, "gif", format)
	assert.Equal(t, image.Rect(0, 0, 60, 30), out.Bounds())
}

func TestResize_UndecodableFallsBackToOriginal(t *testing.T) {
	ctx := context.Background()
	original := []byte("not an image")
	img := contentrepo.NewImageData("images/clients/1/broken.png", "broken", original)

	resized, err := NewResizer(nil).Resize(ctx, img, 10, 10)
	require.NoError(t, err)
	data, err := resized.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestResize_NeverUpscalesAndKeepsAspectRatio(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
	}{
		{400, 200, 100, 100},
		{200, 400, 100, 100},
		{1000, 333, 250, 0},
		{333, 1000, 0, 0},
		{640, 480, 641, 100},
		{7, 3, 2, 2},
	}

	for _, tt := range tests {
		nw, nh, resized := FitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.LessOrEqual(t, nw, tt.w)
		assert.LessOrEqual(t, nh, tt.h)
		if !resized {
			assert.Equal(t, tt.w, nw)
			assert.Equal(t, tt.h, nh)
			continue
		}
		if tt.maxW > 0 {
			assert.LessOrEqual(t, nw, tt.maxW)
		}
		if tt.maxH > 0 {
			assert.LessOrEqual(t, nh, tt.maxH)
		}
		// aspect ratio within one pixel
		expectedH := float64(nw) * float64(tt.h) / float64(tt.w)
		assert.InDelta(t, expectedH, float64(nh), 1.0)
	}
}

func TestFitWithin(t *testing.T) {
	w, h, ok := FitWithin(400, 200, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h, ok = FitWithin(50, 50, 200, 200)
	assert.False(t, ok)
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)

	w, h, ok = FitWithin(1000, 1, 10, 10)
	assert.True(t, ok)
	assert.Equal(t, 10, w)
	assert.Equal(t, 1, h, "dimensions never collapse to zero")
}

func TestDataURL(t *testing.T) {
	ctx := context.Background()
	img := contentrepo.NewImageData("images/clients/1/a.png", "a", []byte{0x89, 'P', 'N', 'G'})

	url, err := NewResizer(nil).DataURL(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", url)
}
