package canvas

import "math"

type NodeType string

const (
	TypeText  NodeType = "text"
	TypeImage NodeType = "image"
	TypeEmoji NodeType = "emoji"
)

func (t NodeType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeEmoji:
		return true
	}
	return false
}

// Node is a positioned, sized, stackable entity on the board. Field names
// on the wire match the documents written by earlier clients.
type Node struct {
	ID        string   `json:"id" validate:"required"`
	Type      NodeType `json:"type" validate:"required,oneof=text image emoji"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     float64  `json:"width" validate:"gt=0"`
	Height    float64  `json:"height" validate:"gt=0"`
	ZIndex    int      `json:"zIndex"`
	Color     string   `json:"color,omitempty"`
	Content   string   `json:"content"`
	FontScale float64  `json:"fontRem,omitempty" validate:"omitempty,gte=0"`
	TextAlign string   `json:"textAlign,omitempty" validate:"omitempty,oneof=left center right"`
	ImageURL  string   `json:"imageUrl,omitempty"`
}

func (n Node) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height}
}

// Geometry is the positional part of a node.
type Geometry struct {
	X, Y, Width, Height float64
}

func (n Node) Geometry() Geometry {
	return Geometry{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// Patch carries optional non-geometric field updates. Nil fields are left
// untouched.
type Patch struct {
	Color     *string
	Content   *string
	FontScale *float64
	TextAlign *string
	ImageURL  *string
}

// Size is a width/height pair in world units.
type Size struct {
	W, H float64
}

var minSizes = map[NodeType]Size{
	TypeText:  {220, 150},
	TypeImage: {50, 50},
	TypeEmoji: {40, 40},
}

var defaultSizes = map[NodeType]Size{
	TypeText:  {220, 150},
	TypeImage: {300, 200},
	TypeEmoji: {120, 120},
}

// MinSize returns the smallest size a node of type t may have.
func MinSize(t NodeType) Size {
	if s, ok := minSizes[t]; ok {
		return s
	}
	return Size{1, 1}
}

func DefaultSize(t NodeType) Size {
	if s, ok := defaultSizes[t]; ok {
		return s
	}
	return MinSize(t)
}

// ClampSize raises w and h to the minimum for t. NaN counts as too small.
func ClampSize(t NodeType, w, h float64) (float64, float64) {
	min := MinSize(t)
	if math.IsNaN(w) || w < min.W {
		w = min.W
	}
	if math.IsNaN(h) || h < min.H {
		h = min.H
	}
	return w, h
}

// Palette lists the sticky note colors in toolbar order.
var Palette = []string{"yellow", "pink", "green", "blue", "purple"}

var paletteHex = map[string]string{
	"yellow": "#FEF9C3",
	"pink":   "#FBCFE8",
	"green":  "#BBF7D0",
	"blue":   "#BFDBFE",
	"purple": "#DDD6FE",
}

// ColorHex returns the fill of a palette color. Unknown names get the first
// palette entry.
func ColorHex(name string) string {
	if h, ok := paletteHex[name]; ok {
		return h
	}
	return paletteHex[Palette[0]]
}

// Alignments lists the text alignments in cycle order.
var Alignments = []string{"left", "center", "right"}

const (
	MinFontScale  = 0.8
	MaxFontScale  = 4.0
	FontScaleStep = 0.2
)

func defaultFontScale(t NodeType) float64 {
	if t == TypeEmoji {
		return 4
	}
	return 1
}

// ClampFontScale keeps s inside [MinFontScale, MaxFontScale] and snaps it to
// the nearest step.
func ClampFontScale(s float64) float64 {
	s = clamp(s, MinFontScale, MaxFontScale)
	steps := math.Round((s - MinFontScale) / FontScaleStep)
	return math.Round((MinFontScale+steps*FontScaleStep)*10) / 10
}

// Clone returns a deep copy of nodes. Node holds only values, so copying the
// slice is enough. The result is never nil.
func Clone(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}
