// Package assets prepares images for image nodes and stores them behind a
// URL.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"tornado/internal/canvas"
)

var ErrNotImage = errors.New("assets: not a supported image")

const (
	DefaultMaxSide  = 1280
	DefaultQuality  = 80
	DefaultMaxWidth = 300
)

// Options control preparation. Zero values take the defaults.
type Options struct {
	MaxSide int
	Quality int
}

// Prepared is a re-encoded image ready for upload.
type Prepared struct {
	Data   []byte
	Width  int
	Height int
	// Source is the decoder name of the input ("png", "jpeg", ...).
	Source string
}

// Prepare decodes data, scales it down so neither side exceeds MaxSide and
// re-encodes it as JPEG.
func Prepare(data []byte, opts Options) (Prepared, error) {
	if opts.MaxSide <= 0 {
		opts.MaxSide = DefaultMaxSide
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), opts.MaxSide)
	if w == 0 || h == 0 {
		return Prepared{}, fmt.Errorf("%w: empty image", ErrNotImage)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white like a browser canvas export.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Prepared{}, fmt.Errorf("assets: encode jpeg: %w", err)
	}
	return Prepared{Data: buf.Bytes(), Width: w, Height: h, Source: format}, nil
}

// Check reports the format and pixel size of data without decoding the whole
// image.
func Check(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return cfg, format, nil
}

// fitWithin scales w by h down so the longer side is at most max, keeping
// the ratio. Smaller images are left alone.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, maxInt(1, h*max/w)
	}
	return maxInt(1, w*max/h), max
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NodeSize is the on-board size of an image of w by h pixels: at most
// maxWidth wide, height following the ratio.
func NodeSize(w, h int, maxWidth float64) canvas.Size {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if w <= 0 || h <= 0 {
		return canvas.DefaultSize(canvas.TypeImage)
	}
	width := float64(w)
	if width > maxWidth {
		width = maxWidth
	}
	return canvas.Size{W: width, H: width * float64(h) / float64(w)}
}
