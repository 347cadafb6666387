package canvas

import "math"

type GestureKind int

const (
	GestureMove GestureKind = iota
	GestureResize
)

func (k GestureKind) String() string {
	if k == GestureResize {
		return "resize"
	}
	return "move"
}

// GestureState is the pointer gesture state machine:
// idle -> armed -> dragging -> idle, or armed -> idle for a click.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureArmed
	GestureDragging
)

func (s GestureState) String() string {
	switch s {
	case GestureArmed:
		return "armed"
	case GestureDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// DefaultDragThreshold is the pointer travel in screen pixels that turns a
// press into a drag.
const DefaultDragThreshold = 3.0

// Outcome describes how a gesture ended.
type Outcome struct {
	Kind   GestureKind
	Target string
	// Click is set when the pointer never travelled past the threshold.
	Click bool
	// Committed is set when the gesture changed geometry. Before then holds
	// the collection as it was at pointer-down.
	Committed bool
	Before    []Node
	// Aborted is set when the target disappeared mid-gesture.
	Aborted bool
}

type gesture struct {
	kind        GestureKind
	state       GestureState
	target      string
	ids         []string
	starts      map[string]Geometry
	startScreen Point
	aspect      float64
	before      []Node
}

// DragController moves and resizes nodes of a Store in response to pointer
// gestures. It works on screen points and converts them with the scale in
// effect, so dragging is zoom invariant.
type DragController struct {
	store     *Store
	threshold float64
	g         gesture
}

func NewDragController(store *Store, threshold float64) *DragController {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &DragController{store: store, threshold: threshold}
}

func (c *DragController) State() GestureState { return c.g.state }
func (c *DragController) Kind() GestureKind   { return c.g.kind }
func (c *DragController) Target() string      { return c.g.target }
func (c *DragController) Active() bool        { return c.g.state != GestureIdle }

// Captured returns the ids moved by the current gesture.
func (c *DragController) Captured() []string {
	out := make([]string, len(c.g.ids))
	copy(out, c.g.ids)
	return out
}

// BeginMove arms a move of ids, pressed on target at screen point p. Missing
// ids are skipped; a missing target leaves the controller idle.
func (c *DragController) BeginMove(target string, ids []string, p Point) bool {
	if !c.store.Has(target) {
		return false
	}
	g := gesture{
		kind:        GestureMove,
		state:       GestureArmed,
		target:      target,
		starts:      make(map[string]Geometry, len(ids)),
		startScreen: p,
		before:      c.store.Nodes(),
	}
	for _, id := range ids {
		if n, ok := c.store.Get(id); ok {
			if _, dup := g.starts[id]; dup {
				continue
			}
			g.ids = append(g.ids, id)
			g.starts[id] = n.Geometry()
		}
	}
	if _, ok := g.starts[target]; !ok {
		n, _ := c.store.Get(target)
		g.ids = append(g.ids, target)
		g.starts[target] = n.Geometry()
	}
	c.g = g
	return true
}

// BeginResize arms a resize of target from its bottom-right handle.
func (c *DragController) BeginResize(target string, p Point) bool {
	n, ok := c.store.Get(target)
	if !ok {
		return false
	}
	c.g = gesture{
		kind:        GestureResize,
		state:       GestureArmed,
		target:      target,
		ids:         []string{target},
		starts:      map[string]Geometry{target: n.Geometry()},
		startScreen: p,
		before:      c.store.Nodes(),
	}
	if n.Height > 0 {
		c.g.aspect = n.Width / n.Height
	}
	return true
}

// Update applies the pointer position p. freeAspect releases the aspect lock
// of a resize. It reports whether geometry changed.
func (c *DragController) Update(p Point, scale float64, freeAspect bool) bool {
	if c.g.state == GestureIdle {
		return false
	}
	if !c.store.Has(c.g.target) {
		c.abort()
		return false
	}
	d := p.Sub(c.g.startScreen)
	if c.g.state == GestureArmed {
		if math.Abs(d.X) < c.threshold && math.Abs(d.Y) < c.threshold {
			return false
		}
		c.g.state = GestureDragging
	}
	if scale <= 0 {
		scale = 1
	}
	delta := Point{d.X / scale, d.Y / scale}
	switch c.g.kind {
	case GestureMove:
		for _, id := range c.g.ids {
			start := c.g.starts[id]
			c.store.Move(id, Point{start.X + delta.X, start.Y + delta.Y})
		}
	case GestureResize:
		c.resize(delta, freeAspect)
	}
	return true
}

func (c *DragController) resize(delta Point, freeAspect bool) {
	n, ok := c.store.Get(c.g.target)
	if !ok {
		return
	}
	start := c.g.starts[c.g.target]
	w := start.Width + delta.X
	h := start.Height + delta.Y
	if !freeAspect && c.g.aspect > 0 {
		min := MinSize(n.Type)
		w = math.Max(w, math.Max(min.W, min.H*c.g.aspect))
		h = w / c.g.aspect
	}
	c.store.UpdateGeometry(c.g.target, Geometry{X: start.X, Y: start.Y, Width: w, Height: h})
}

// End finishes the gesture at p and resets the controller.
func (c *DragController) End(p Point, scale float64, freeAspect bool) Outcome {
	if c.g.state == GestureIdle {
		return Outcome{}
	}
	kind, target := c.g.kind, c.g.target
	c.Update(p, scale, freeAspect)
	if c.g.state == GestureIdle {
		return Outcome{Kind: kind, Target: target, Aborted: true}
	}
	out := Outcome{Kind: kind, Target: target, Before: c.g.before}
	if c.g.state == GestureArmed {
		out.Click = true
	} else {
		out.Committed = c.moved()
	}
	c.g = gesture{}
	return out
}

// Cancel abandons the gesture and puts every captured node that still
// exists back where it started. It reports whether a gesture was active.
func (c *DragController) Cancel() bool {
	if c.g.state == GestureIdle {
		return false
	}
	c.restore()
	c.g = gesture{}
	return true
}

func (c *DragController) abort() {
	c.restore()
	c.g = gesture{}
}

func (c *DragController) restore() {
	for _, id := range c.g.ids {
		if start, ok := c.g.starts[id]; ok {
			c.store.UpdateGeometry(id, start)
		}
	}
}

func (c *DragController) moved() bool {
	for _, id := range c.g.ids {
		n, ok := c.store.Get(id)
		if !ok {
			continue
		}
		if n.Geometry() != c.g.starts[id] {
			return true
		}
	}
	return false
}
