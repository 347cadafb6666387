package canvas

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Saver receives the full collection after every committed change. It must
// not block; the session never waits for or rolls back on persistence.
type Saver func(nodes []Node)

type Options struct {
	DragThreshold float64
	// HandleSize is the side of the resize handle square in screen pixels.
	HandleSize   float64
	HistoryLimit int
	DefaultColor string
	Viewport     ViewportOptions
	// Random returns values in [0,1) for placing nodes added without a
	// position.
	Random func() float64
}

func DefaultOptions() Options {
	return Options{
		DragThreshold: DefaultDragThreshold,
		HandleSize:    16,
		HistoryLimit:  200,
		DefaultColor:  Palette[0],
		Viewport:      DefaultViewportOptions(),
	}
}

// Session is the state of one open board: store, selection, history, the
// pointer gesture and the viewport. It is driven from a single goroutine.
type Session struct {
	store *Store
	sel   *Selection
	hist  *History
	drag  *DragController
	view  *ViewportController

	opts   Options
	save   Saver
	logger *zap.Logger

	multiToggle  bool
	modifierHeld bool
	panMode      bool
	color        string

	editing     string
	editContent string
}

func NewSession(opts Options, save Saver, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HandleSize <= 0 {
		opts.HandleSize = 16
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	color := opts.DefaultColor
	if color == "" {
		color = Palette[0]
	}
	store := NewStore()
	return &Session{
		store:  store,
		sel:    NewSelection(),
		hist:   NewHistory(opts.HistoryLimit),
		drag:   NewDragController(store, opts.DragThreshold),
		view:   NewViewportController(opts.Viewport),
		opts:   opts,
		save:   save,
		logger: logger,
		color:  color,
	}
}

// Read side.

func (s *Session) Nodes() []Node               { return s.store.Nodes() }
func (s *Session) PaintOrder() []Node          { return s.store.PaintOrder() }
func (s *Session) Node(id string) (Node, bool) { return s.store.Get(id) }
func (s *Session) Selected() []string          { return s.sel.IDs() }
func (s *Session) IsSelected(id string) bool   { return s.sel.Contains(id) }
func (s *Session) SelectionState() SelectionState {
	return s.sel.State()
}

// Primary returns the single selected node, the one the inspector shows.
func (s *Session) Primary() (Node, bool) {
	id, ok := s.sel.Primary()
	if !ok {
		return Node{}, false
	}
	return s.store.Get(id)
}

func (s *Session) Viewport() Viewport           { return s.view.Viewport() }
func (s *Session) Gesture() GestureState        { return s.drag.State() }
func (s *Session) CanUndo() bool                { return s.hist.CanUndo() }
func (s *Session) CanRedo() bool                { return s.hist.CanRedo() }
func (s *Session) MultiSelect() bool            { return s.multiToggle }
func (s *Session) ModifierHeld() bool           { return s.modifierHeld }
func (s *Session) PanMode() bool                { return s.panMode }
func (s *Session) Color() string                { return s.color }
func (s *Session) Editing() (string, bool)      { return s.editing, s.editing != "" }
func (s *Session) EffectiveMulti() bool         { return EffectiveMulti(s.multiToggle, s.modifierHeld) }
func (s *Session) SetViewportSize(w, h float64) { s.view.SetSize(w, h) }

// Pointer input.

func (s *Session) PointerDown(ev PointerEvent) {
	s.modifierHeld = ev.Mods.Command()
	if ev.Button == ButtonMiddle || (s.panMode && ev.Button == ButtonLeft) {
		s.view.BeginPan(ev.Pos)
		return
	}
	if ev.Button != ButtonLeft {
		return
	}
	if s.drag.Active() {
		s.drag.Cancel()
	}
	s.EndEdit()
	if id, ok := s.handleAt(ev.Pos); ok {
		s.drag.BeginResize(id, ev.Pos)
		return
	}
	n, ok := s.store.HitTest(s.view.Viewport().ToWorld(ev.Pos))
	if !ok {
		if !s.EffectiveMulti() {
			s.sel.Clear()
		}
		return
	}
	s.drag.BeginMove(n.ID, s.groupFor(n.ID), ev.Pos)
}

func (s *Session) PointerMove(ev PointerEvent) {
	s.modifierHeld = ev.Mods.Command()
	if s.view.Panning() {
		s.view.PanTo(ev.Pos)
		return
	}
	s.drag.Update(ev.Pos, s.view.Viewport().Scale, ev.Mods.Shift)
}

// PointerUp ends a pan or a gesture. The button is ignored since terminals
// do not report which button was released.
func (s *Session) PointerUp(ev PointerEvent) {
	if s.view.Panning() {
		s.view.PanTo(ev.Pos)
		s.view.EndPan()
		return
	}
	out := s.drag.End(ev.Pos, s.view.Viewport().Scale, ev.Mods.Shift)
	switch {
	case out.Aborted:
		s.logger.Debug("gesture aborted, target removed", zap.String("node", out.Target))
	case out.Click:
		s.click(out.Target)
	case out.Committed:
		s.hist.Snapshot(out.Before)
		s.persist()
	}
}

func (s *Session) Wheel(ev WheelEvent) {
	s.view.Wheel(ev.Pos, ev.DeltaY)
}

// SetModifierHeld records key-down/key-up of the multi-select modifier.
func (s *Session) SetModifierHeld(held bool) {
	s.modifierHeld = held
}

// Key handles the board shortcuts and reports whether ev was consumed.
func (s *Session) Key(ev KeyEvent) bool {
	switch {
	case ev.Key == "escape":
		return s.drag.Cancel() || s.EndEdit()
	case ev.Key == "delete" || ev.Key == "backspace":
		return s.DeleteSelection() > 0
	case ev.Mods.Command() && ev.Key == "z" && !ev.Mods.Shift:
		s.Undo()
		return true
	case ev.Mods.Command() && (ev.Key == "y" || ev.Key == "z"):
		s.Redo()
		return true
	}
	return false
}

// ClearSelection deselects everything. It is not an undoable change.
func (s *Session) ClearSelection() {
	s.sel.Clear()
}

// CancelGesture abandons an in-flight drag or resize, restoring geometry.
func (s *Session) CancelGesture() bool {
	return s.drag.Cancel()
}

func (s *Session) click(id string) {
	if !s.store.Has(id) {
		return
	}
	if s.EffectiveMulti() {
		s.sel.Toggle(id)
		return
	}
	s.sel.SelectOnly(id)
}

// groupFor returns the ids a press on id drags: the whole selection when
// multi-select is in effect and id belongs to it, otherwise id alone.
func (s *Session) groupFor(id string) []string {
	if s.EffectiveMulti() && s.sel.Contains(id) {
		return s.sel.IDs()
	}
	return []string{id}
}

// handleAt reports the node whose resize handle lies under screen point p.
// Only the topmost node under the pointer is considered.
func (s *Session) handleAt(p Point) (string, bool) {
	vp := s.view.Viewport()
	n, ok := s.store.HitTest(vp.ToWorld(p))
	if !ok {
		return "", false
	}
	r := vp.RectToScreen(n.Bounds())
	hs := math.Min(s.opts.HandleSize, math.Min(r.W, r.H))
	handle := Rect{X: r.MaxX() - hs, Y: r.MaxY() - hs, W: hs, H: hs}
	if handle.Contains(p) {
		return n.ID, true
	}
	return "", false
}

// Commands. Each snapshots before mutating and persists afterwards.

func (s *Session) snapshot() {
	s.drag.Cancel()
	s.EndEdit()
	s.hist.Snapshot(s.store.Nodes())
}

func (s *Session) persist() {
	if s.save != nil {
		s.save(s.store.Nodes())
	}
}

// AddNode places a new node of type t. A nil at uses random placement.
func (s *Session) AddNode(t NodeType, at *Point) Node {
	n := Node{Type: t}
	if t == TypeEmoji {
		n.Content = "😀"
	}
	if at != nil {
		n.X, n.Y = at.X, at.Y
	} else {
		n.X = 100 + s.opts.Random()*200
		n.Y = 100 + s.opts.Random()*200
	}
	return s.Add(n)
}

// Add inserts n, filling zero fields with the defaults for its type, and
// selects it.
func (s *Session) Add(n Node) Node {
	if !n.Type.Valid() {
		n.Type = TypeText
	}
	n.ID = uuid.NewString()
	if n.Width == 0 || n.Height == 0 {
		size := DefaultSize(n.Type)
		n.Width, n.Height = size.W, size.H
	}
	n.ZIndex = max(0, s.store.MaxZ()) + 1
	if n.Color == "" {
		n.Color = s.color
	}
	if n.FontScale == 0 {
		n.FontScale = defaultFontScale(n.Type)
	}
	if n.TextAlign == "" {
		n.TextAlign = Alignments[0]
	}
	s.snapshot()
	if _, err := s.store.Add(n); err != nil {
		s.hist.Discard()
		s.logger.Warn("add node", zap.Error(err))
		return Node{}
	}
	added, _ := s.store.Get(n.ID)
	s.sel.SelectOnly(n.ID)
	s.persist()
	return added
}

// PasteText adds a text node holding text at world point at.
func (s *Session) PasteText(text string, at Point) Node {
	return s.Add(Node{Type: TypeText, X: at.X, Y: at.Y, Content: text})
}

// Paste inserts copies of nodes with fresh ids, translated so their common
// top-left corner lands on at and stacked above everything present. The
// pasted nodes become the selection.
func (s *Session) Paste(nodes []Node, at Point) []string {
	box, ok := Bounds(nodes)
	if !ok {
		return nil
	}
	s.snapshot()
	base := max(0, s.store.MaxZ())
	minZ := 0
	for i, n := range nodes {
		if i == 0 || n.ZIndex < minZ {
			minZ = n.ZIndex
		}
	}
	var ids []string
	for _, n := range SortByZ(nodes) {
		n.ID = uuid.NewString()
		n.X = at.X + (n.X - box.X)
		n.Y = at.Y + (n.Y - box.Y)
		n.ZIndex = base + 1 + (n.ZIndex - minZ)
		if _, err := s.store.Add(n); err != nil {
			s.logger.Warn("paste node", zap.Error(err))
			continue
		}
		ids = append(ids, n.ID)
	}
	if len(ids) == 0 {
		s.hist.Discard()
		return nil
	}
	s.sel.Set(ids)
	s.persist()
	return ids
}

// DeleteSelection removes every selected node and returns how many were
// removed.
func (s *Session) DeleteSelection() int {
	return s.Delete(s.sel.IDs()...)
}

func (s *Session) Delete(ids ...string) int {
	var present []string
	for _, id := range ids {
		if s.store.Has(id) {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return 0
	}
	s.snapshot()
	s.store.RemoveMany(present)
	s.sel.Evict(present...)
	s.persist()
	return len(present)
}

func (s *Session) Undo() bool {
	s.drag.Cancel()
	s.EndEdit()
	restored, ok := s.hist.Undo(s.store.Nodes())
	if !ok {
		return false
	}
	s.restore(restored)
	return true
}

func (s *Session) Redo() bool {
	s.drag.Cancel()
	s.EndEdit()
	restored, ok := s.hist.Redo(s.store.Nodes())
	if !ok {
		return false
	}
	s.restore(restored)
	return true
}

func (s *Session) restore(nodes []Node) {
	s.store.Replace(nodes)
	s.sel.Retain(s.store.Has)
	s.persist()
}

func (s *Session) ClearAll() bool {
	if s.store.Len() == 0 {
		return false
	}
	s.snapshot()
	s.store.Clear()
	s.sel.Clear()
	s.persist()
	return true
}

func (s *Session) BringToFront() bool { return s.restack(ToFront) }
func (s *Session) SendToBack() bool   { return s.restack(ToBack) }

// restack applies op to every selected node. Members keep their relative
// order: bottom-up for ToFront and top-down for ToBack.
func (s *Session) restack(op StackOp) bool {
	targets := s.selectedInPaintOrder()
	if len(targets) == 0 {
		return false
	}
	s.snapshot()
	if op == ToBack {
		for i := len(targets) - 1; i >= 0; i-- {
			s.store.Restack(targets[i], op)
		}
	} else {
		for _, id := range targets {
			s.store.Restack(id, op)
		}
	}
	s.persist()
	return true
}

func (s *Session) selectedInPaintOrder() []string {
	var ids []string
	for _, n := range s.store.PaintOrder() {
		if s.sel.Contains(n.ID) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// SetColor makes c the color for new nodes and applies it to the selection.
func (s *Session) SetColor(c string) bool {
	s.color = c
	return s.patchSelection(Patch{Color: &c})
}

func (s *Session) SetAlign(a string) bool {
	return s.patchSelection(Patch{TextAlign: &a})
}

// CycleAlign moves the primary node to the next alignment.
func (s *Session) CycleAlign() bool {
	n, ok := s.Primary()
	if !ok {
		return false
	}
	next := Alignments[0]
	for i, a := range Alignments {
		if a == n.TextAlign {
			next = Alignments[(i+1)%len(Alignments)]
			break
		}
	}
	return s.SetAlign(next)
}

func (s *Session) SetFontScale(f float64) bool {
	return s.patchSelection(Patch{FontScale: &f})
}

// StepFontScale nudges the primary node's font scale by dir steps.
func (s *Session) StepFontScale(dir int) bool {
	n, ok := s.Primary()
	if !ok {
		return false
	}
	cur := n.FontScale
	if cur == 0 {
		cur = defaultFontScale(n.Type)
	}
	next := ClampFontScale(cur + float64(dir)*FontScaleStep)
	if next == cur {
		return false
	}
	return s.SetFontScale(next)
}

func (s *Session) patchSelection(p Patch) bool {
	ids := s.sel.IDs()
	if len(ids) == 0 {
		return false
	}
	s.snapshot()
	for _, id := range ids {
		s.store.UpdateFields(id, p)
	}
	s.persist()
	return true
}

// SetImage points image node id at url and resizes it to w by h, keeping
// its position. It may arrive while another node is being edited: that edit
// is closed as its own undo step and then picks up again.
func (s *Session) SetImage(id, url string, w, h float64) bool {
	n, ok := s.store.Get(id)
	if !ok {
		return false
	}
	resume := s.editing
	s.snapshot()
	s.store.UpdateFields(id, Patch{ImageURL: &url})
	if w > 0 && h > 0 {
		s.store.UpdateGeometry(id, Geometry{X: n.X, Y: n.Y, Width: w, Height: h})
	}
	s.persist()
	if resume != "" {
		s.BeginEdit(resume)
	}
	return true
}

// BeginEdit enters content editing for id. The snapshot taken here is the
// single undo step for everything typed until EndEdit.
func (s *Session) BeginEdit(id string) bool {
	n, ok := s.store.Get(id)
	if !ok {
		return false
	}
	s.snapshot()
	s.editing = id
	s.editContent = n.Content
	s.sel.SelectOnly(id)
	return true
}

// EditContent replaces the content of the node being edited and persists
// it without a history entry.
func (s *Session) EditContent(text string) bool {
	if s.editing == "" || !s.store.Has(s.editing) {
		return false
	}
	s.store.UpdateFields(s.editing, Patch{Content: &text})
	s.persist()
	return true
}

// EndEdit leaves edit mode. An edit that changed nothing leaves no history
// entry behind.
func (s *Session) EndEdit() bool {
	if s.editing == "" {
		return false
	}
	n, ok := s.store.Get(s.editing)
	if !ok || n.Content == s.editContent {
		s.hist.Discard()
	}
	s.editing, s.editContent = "", ""
	return true
}

func (s *Session) ToggleMultiSelect() bool {
	s.multiToggle = !s.multiToggle
	return s.multiToggle
}

func (s *Session) TogglePanMode() bool {
	s.panMode = !s.panMode
	if !s.panMode {
		s.view.EndPan()
	}
	return s.panMode
}

func (s *Session) ZoomIn()                { s.view.ZoomIn() }
func (s *Session) ZoomOut()               { s.view.ZoomOut() }
func (s *Session) Fit() bool              { return s.view.Fit(s.store.Nodes()) }
func (s *Session) PanBy(d Point)          { s.view.PanBy(d) }
func (s *Session) ResetViewport()         { s.view.Reset() }
func (s *Session) SetViewport(v Viewport) { s.view.Set(v) }

// Load replaces the board with a freshly loaded collection. Selection,
// history and viewport start over and nothing is persisted.
func (s *Session) Load(nodes []Node) {
	s.drag.Cancel()
	s.view.EndPan()
	s.editing, s.editContent = "", ""
	s.store.Replace(nodes)
	s.sel.Clear()
	s.hist.Reset()
	s.view.Reset()
}
