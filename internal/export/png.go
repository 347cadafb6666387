// Package export writes boards out as PNG images or plain text.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"tornado/internal/assets"
	"tornado/internal/canvas"
)

var ErrEmpty = errors.New("export: nothing to export")

const (
	padding      = 40.0
	baseFontSize = 16.0
	// maxSide bounds the output so huge boards do not allocate gigabytes.
	maxSide = 8192.0
)

// PNGOptions tune the raster export.
type PNGOptions struct {
	// Background defaults to white.
	Background color.Color
	// LoadImage resolves image node URLs. Nil reads local file:// URLs only.
	LoadImage func(url string) (image.Image, error)
}

// PNG renders nodes to a PNG at path. The image covers the bounds of all
// nodes plus padding at one pixel per world unit, scaled down if either side
// would exceed the size limit.
func PNG(nodes []canvas.Node, path string, opts PNGOptions) error {
	dc, err := Render(nodes, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// Render draws nodes into a new gg context.
func Render(nodes []canvas.Node, opts PNGOptions) (*gg.Context, error) {
	bounds, ok := canvas.Bounds(nodes)
	if !ok {
		return nil, ErrEmpty
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.LoadImage == nil {
		opts.LoadImage = loadLocalImage
	}

	w := bounds.W + 2*padding
	h := bounds.H + 2*padding
	scale := math.Min(1, maxSide/math.Max(w, h))

	dc := gg.NewContext(int(math.Ceil(w*scale)), int(math.Ceil(h*scale)))
	dc.SetColor(opts.Background)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(padding-bounds.X, padding-bounds.Y)

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("export: parse font: %w", err)
	}
	faces := map[float64]font.Face{}
	face := func(size float64) font.Face {
		if f, ok := faces[size]; ok {
			return f
		}
		f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
		faces[size] = f
		return f
	}

	for _, n := range canvas.SortByZ(nodes) {
		switch n.Type {
		case canvas.TypeText:
			drawNotePNG(dc, n, face)
		case canvas.TypeEmoji:
			drawEmojiPNG(dc, n, face)
		case canvas.TypeImage:
			drawImagePNG(dc, n, opts.LoadImage, face)
		}
	}
	return dc, nil
}

func fontScale(n canvas.Node) float64 {
	if n.FontScale <= 0 {
		return 1
	}
	return n.FontScale
}

func drawNotePNG(dc *gg.Context, n canvas.Node, face func(float64) font.Face) {
	dc.DrawRoundedRectangle(n.X, n.Y, n.Width, n.Height, 6)
	dc.SetHexColor(canvas.ColorHex(n.Color))
	dc.FillPreserve()
	dc.SetLineWidth(1)
	dc.SetColor(color.Gray{Y: 180})
	dc.Stroke()

	size := baseFontSize * fontScale(n)
	dc.SetFontFace(face(size))
	dc.SetColor(color.Black)

	inset := 12.0
	width := n.Width - 2*inset
	if width <= 0 {
		return
	}
	ax, x := 0.0, n.X+inset
	switch n.TextAlign {
	case "center":
		ax, x = 0.5, n.X+n.Width/2
	case "right":
		ax, x = 1, n.X+n.Width-inset
	}
	lineHeight := size * 1.4
	y := n.Y + inset
	for _, line := range dc.WordWrap(n.Content, width) {
		if y+lineHeight > n.Y+n.Height {
			break
		}
		dc.DrawStringAnchored(line, x, y, ax, 1)
		y += lineHeight
	}
}

func drawEmojiPNG(dc *gg.Context, n canvas.Node, face func(float64) font.Face) {
	size := math.Min(baseFontSize*fontScale(n), n.Height*0.8)
	dc.SetFontFace(face(size))
	dc.SetColor(color.Black)
	c := n.Bounds().Center()
	dc.DrawStringAnchored(n.Content, c.X, c.Y, 0.5, 0.5)
}

func drawImagePNG(dc *gg.Context, n canvas.Node, load func(string) (image.Image, error), face func(float64) font.Face) {
	if n.ImageURL != "" {
		if img, err := load(n.ImageURL); err == nil {
			b := img.Bounds()
			if b.Dx() > 0 && b.Dy() > 0 {
				dc.Push()
				dc.Translate(n.X, n.Y)
				dc.Scale(n.Width/float64(b.Dx()), n.Height/float64(b.Dy()))
				dc.DrawImage(img, -b.Min.X, -b.Min.Y)
				dc.Pop()
				return
			}
		}
	}
	dc.DrawRectangle(n.X, n.Y, n.Width, n.Height)
	dc.SetColor(color.Gray{Y: 235})
	dc.FillPreserve()
	dc.SetColor(color.Gray{Y: 150})
	dc.SetLineWidth(1)
	dc.SetDash(6, 4)
	dc.Stroke()
	dc.SetDash()
	dc.SetFontFace(face(baseFontSize))
	c := n.Bounds().Center()
	dc.DrawStringAnchored("image", c.X, c.Y, 0.5, 0.5)
}

func loadLocalImage(url string) (image.Image, error) {
	path, ok := assets.LocalPath(url)
	if !ok {
		return nil, fmt.Errorf("export: %s is not a local image", url)
	}
	return gg.LoadImage(path)
}
