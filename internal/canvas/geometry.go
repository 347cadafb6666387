package canvas

import "math"

// Point is a 2D coordinate, either in screen pixels or in world units
// depending on where it came from.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

func (r Rect) Center() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Viewport maps world space to screen space: screen = world*Scale + Offset.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// DefaultViewport is the identity transform.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

func (v Viewport) Offset() Point { return Point{v.OffsetX, v.OffsetY} }

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(p Point) Point {
	return Point{
		X: (p.X - v.OffsetX) / v.Scale,
		Y: (p.Y - v.OffsetY) / v.Scale,
	}
}

// ToScreen converts a world point to screen coordinates.
func (v Viewport) ToScreen(p Point) Point {
	return Point{
		X: p.X*v.Scale + v.OffsetX,
		Y: p.Y*v.Scale + v.OffsetY,
	}
}

// WorldDelta converts a pointer movement in screen pixels into world units.
func (v Viewport) WorldDelta(d Point) Point {
	return Point{d.X / v.Scale, d.Y / v.Scale}
}

// RectToScreen converts a world rectangle to screen space.
func (v Viewport) RectToScreen(r Rect) Rect {
	o := v.ToScreen(Point{r.X, r.Y})
	return Rect{X: o.X, Y: o.Y, W: r.W * v.Scale, H: r.H * v.Scale}
}

// Bounds returns the bounding box of all nodes. ok is false for an empty
// collection.
func Bounds(nodes []Node) (r Rect, ok bool) {
	for i, n := range nodes {
		if i == 0 {
			r = n.Bounds()
			continue
		}
		r = r.Union(n.Bounds())
	}
	return r, len(nodes) > 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
