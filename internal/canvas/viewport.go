package canvas

import "math"

// ZoomRange bounds the scale for one kind of zoom input.
type ZoomRange struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

func (r ZoomRange) clamp(s float64) float64 {
	return clamp(s, r.Min, r.Max)
}

// ViewportOptions configures a ViewportController.
type ViewportOptions struct {
	WheelZoom  ZoomRange
	ButtonZoom ZoomRange
	// WheelFactor multiplies the scale per notch when zooming in. Zooming
	// out uses 2-WheelFactor, 0.9 for the default.
	WheelFactor float64
	ButtonStep  float64
	FitPadding  float64
}

func DefaultViewportOptions() ViewportOptions {
	return ViewportOptions{
		WheelZoom:   ZoomRange{Min: 0.1, Max: 4},
		ButtonZoom:  ZoomRange{Min: 0.2, Max: 3},
		WheelFactor: 1.1,
		ButtonStep:  0.1,
		FitPadding:  500,
	}
}

type panState struct {
	start  Point
	origin Point
}

// ViewportController owns pan offset and zoom scale together with the
// pixel size of the visible area.
type ViewportController struct {
	vp     Viewport
	opts   ViewportOptions
	width  float64
	height float64
	pan    *panState
}

func NewViewportController(opts ViewportOptions) *ViewportController {
	if opts.WheelFactor <= 1 {
		opts.WheelFactor = 1.1
	}
	if opts.WheelZoom.Min <= 0 {
		opts.WheelZoom.Min = 0.1
	}
	if opts.WheelZoom.Max < opts.WheelZoom.Min {
		opts.WheelZoom.Max = opts.WheelZoom.Min
	}
	if opts.ButtonZoom.Min <= 0 {
		opts.ButtonZoom.Min = 0.2
	}
	if opts.ButtonZoom.Max < opts.ButtonZoom.Min {
		opts.ButtonZoom.Max = opts.ButtonZoom.Min
	}
	if opts.ButtonStep <= 0 {
		opts.ButtonStep = 0.1
	}
	return &ViewportController{vp: DefaultViewport(), opts: opts}
}

func (c *ViewportController) Viewport() Viewport { return c.vp }

// Set replaces the transform. A non-positive scale is ignored.
func (c *ViewportController) Set(v Viewport) {
	if v.Scale <= 0 || math.IsNaN(v.Scale) {
		v.Scale = c.vp.Scale
	}
	c.vp = v
}

func (c *ViewportController) Reset() {
	c.vp = DefaultViewport()
	c.pan = nil
}

// SetSize records the pixel dimensions of the visible area.
func (c *ViewportController) SetSize(w, h float64) {
	c.width, c.height = w, h
}

func (c *ViewportController) Size() (float64, float64) { return c.width, c.height }

// ZoomAt sets the scale to newScale keeping the world point under the
// screen point anchor fixed.
func (c *ViewportController) ZoomAt(anchor Point, newScale float64) {
	if newScale <= 0 || math.IsNaN(newScale) {
		return
	}
	world := c.vp.ToWorld(anchor)
	c.vp = Viewport{
		OffsetX: anchor.X - world.X*newScale,
		OffsetY: anchor.Y - world.Y*newScale,
		Scale:   newScale,
	}
}

// Wheel zooms around the cursor. A negative deltaY (wheel up) zooms in.
func (c *ViewportController) Wheel(cursor Point, deltaY float64) {
	if deltaY == 0 {
		return
	}
	factor := c.opts.WheelFactor
	if deltaY > 0 {
		factor = 2 - c.opts.WheelFactor
	}
	c.ZoomAt(cursor, c.opts.WheelZoom.clamp(c.vp.Scale*factor))
}

// ZoomIn steps the scale up around the viewport center.
func (c *ViewportController) ZoomIn() {
	c.ZoomAt(c.center(), c.opts.ButtonZoom.clamp(c.vp.Scale+c.opts.ButtonStep))
}

func (c *ViewportController) ZoomOut() {
	c.ZoomAt(c.center(), c.opts.ButtonZoom.clamp(c.vp.Scale-c.opts.ButtonStep))
}

func (c *ViewportController) center() Point {
	return Point{c.width / 2, c.height / 2}
}

// BeginPan starts a pan gesture at screen point p.
func (c *ViewportController) BeginPan(p Point) {
	c.pan = &panState{start: p, origin: c.vp.Offset()}
}

func (c *ViewportController) Panning() bool { return c.pan != nil }

// PanTo moves the offset by the raw screen delta since BeginPan. Offsets are
// screen units, so no scale compensation applies.
func (c *ViewportController) PanTo(p Point) {
	if c.pan == nil {
		return
	}
	c.vp.OffsetX = c.pan.origin.X + (p.X - c.pan.start.X)
	c.vp.OffsetY = c.pan.origin.Y + (p.Y - c.pan.start.Y)
}

func (c *ViewportController) EndPan() {
	c.pan = nil
}

// PanBy shifts the offset by d screen pixels (keyboard panning).
func (c *ViewportController) PanBy(d Point) {
	c.vp.OffsetX += d.X
	c.vp.OffsetY += d.Y
}

// Fit frames every node: the padded bounding box is scaled to fit the
// visible area, never past 100%, and centered.
func (c *ViewportController) Fit(nodes []Node) bool {
	box, ok := Bounds(nodes)
	if !ok || c.width <= 0 || c.height <= 0 {
		return false
	}
	pad := c.opts.FitPadding
	contentW := box.W + pad*2
	contentH := box.H + pad*2
	scale := 1.0
	if contentW > 0 {
		scale = math.Min(scale, c.width/contentW)
	}
	if contentH > 0 {
		scale = math.Min(scale, c.height/contentH)
	}
	if scale <= 0 {
		return false
	}
	mid := box.Center()
	c.vp = Viewport{
		OffsetX: c.width/2 - mid.X*scale,
		OffsetY: c.height/2 - mid.Y*scale,
		Scale:   scale,
	}
	return true
}
