// Package render rasterizes a board into a grid of terminal cells. The
// terminal UI colors the grid; the text export writes it out as is.
package render

import (
	"math"
	"path"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"tornado/internal/canvas"
)

// Layout is the pixel size of one terminal cell. Board coordinates are
// pixels; the terminal only has cells.
type Layout struct {
	CellW, CellH float64
}

func DefaultLayout() Layout { return Layout{CellW: 8, CellH: 16} }

// Pixel returns the screen pixel at the center of cell (col, row).
func (l Layout) Pixel(col, row int) canvas.Point {
	return canvas.Point{
		X: float64(col)*l.CellW + l.CellW/2,
		Y: float64(row)*l.CellH + l.CellH/2,
	}
}

// Size returns the pixel size of a cols by rows area.
func (l Layout) Size(cols, rows int) (float64, float64) {
	return float64(cols) * l.CellW, float64(rows) * l.CellH
}

// span returns the first and last cell whose center lies in [lo, hi).
func span(lo, hi, cell float64) (int, int) {
	a := int(math.Ceil((lo - cell/2) / cell))
	b := int(math.Ceil((hi-cell/2)/cell)) - 1
	if b < a {
		b = a
	}
	return a, b
}

// Box is the cell rectangle a screen rectangle occupies, inclusive.
type Box struct {
	Col0, Row0, Col1, Row1 int
}

func (l Layout) Box(r canvas.Rect) Box {
	c0, c1 := span(r.X, r.MaxX(), l.CellW)
	r0, r1 := span(r.Y, r.MaxY(), l.CellH)
	return Box{Col0: c0, Row0: r0, Col1: c1, Row1: r1}
}

func (b Box) Width() int  { return b.Col1 - b.Col0 + 1 }
func (b Box) Height() int { return b.Row1 - b.Row0 + 1 }

// Cell is one terminal cell. Cont marks the right half of a wide rune.
type Cell struct {
	Ch       rune
	Cont     bool
	Fill     string
	Node     string
	Border   bool
	Selected bool
	Handle   bool
	Caret    bool
}

// Grid is a rows by cols block of cells.
type Grid struct {
	Cols, Rows int
	Cells      [][]Cell
}

func NewGrid(cols, rows int) *Grid {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	g := &Grid{Cols: cols, Rows: rows, Cells: make([][]Cell, rows)}
	for y := range g.Cells {
		row := make([]Cell, cols)
		for x := range row {
			row[x].Ch = ' '
		}
		g.Cells[y] = row
	}
	return g
}

func (g *Grid) inside(col, row int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// set writes a rune of width w at (col, row), repairing any wide rune it
// overlaps.
func (g *Grid) set(col, row int, ch rune, w int, proto Cell) {
	if !g.inside(col, row) || (w == 2 && !g.inside(col+1, row)) {
		return
	}
	line := g.Cells[row]
	g.clearWide(col, row)
	if w == 2 {
		g.clearWide(col+1, row)
	}
	c := proto
	c.Ch = ch
	c.Cont = false
	line[col] = c
	if w == 2 {
		c.Ch = 0
		c.Cont = true
		line[col+1] = c
	}
}

func (g *Grid) clearWide(col, row int) {
	line := g.Cells[row]
	if line[col].Cont && col > 0 {
		line[col-1].Ch = ' '
	}
	if !line[col].Cont && col+1 < g.Cols && line[col+1].Cont {
		line[col+1].Ch = ' '
		line[col+1].Cont = false
	}
}

// putString writes s from col up to but excluding maxCol and returns the
// column after the last rune written.
func (g *Grid) putString(col, row, maxCol int, s string, proto Cell) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > maxCol {
			break
		}
		g.set(col, row, r, w, proto)
		col += w
	}
	return col
}

// Lines returns the grid as plain text, one string per row.
func (g *Grid) Lines() []string {
	out := make([]string, g.Rows)
	var b strings.Builder
	for y, row := range g.Cells {
		b.Reset()
		for _, c := range row {
			if c.Cont {
				continue
			}
			b.WriteRune(c.Ch)
		}
		out[y] = b.String()
	}
	return out
}

// Options select what Draw decorates.
type Options struct {
	Layout   Layout
	Selected func(id string) bool
	// Primary gets the resize handle marker.
	Primary string
	// Editing shows a caret after the content of that node.
	Editing string
	// HandleSize is the resize handle side in screen pixels.
	HandleSize float64
}

// Draw renders nodes, bottom to top by zIndex, as seen through vp.
func Draw(nodes []canvas.Node, vp canvas.Viewport, cols, rows int, opts Options) *Grid {
	if opts.Layout.CellW <= 0 || opts.Layout.CellH <= 0 {
		opts.Layout = DefaultLayout()
	}
	g := NewGrid(cols, rows)
	for _, n := range canvas.SortByZ(nodes) {
		sel := opts.Selected != nil && opts.Selected(n.ID)
		drawNode(g, n, vp, sel, opts)
	}
	return g
}

func drawNode(g *Grid, n canvas.Node, vp canvas.Viewport, selected bool, opts Options) {
	sr := vp.RectToScreen(n.Bounds())
	b := opts.Layout.Box(sr)
	if b.Col1 < 0 || b.Row1 < 0 || b.Col0 >= g.Cols || b.Row0 >= g.Rows {
		return
	}
	fill := Cell{Fill: fillColor(n), Node: n.ID, Selected: selected}

	for y := b.Row0; y <= b.Row1; y++ {
		for x := b.Col0; x <= b.Col1; x++ {
			g.set(x, y, ' ', 1, fill)
		}
	}
	if b.Width() >= 2 && b.Height() >= 2 {
		drawBorder(g, b, fill)
	}
	inner := b
	if b.Width() >= 3 && b.Height() >= 3 {
		inner = Box{Col0: b.Col0 + 1, Row0: b.Row0 + 1, Col1: b.Col1 - 1, Row1: b.Row1 - 1}
	}
	switch n.Type {
	case canvas.TypeText:
		lines := drawText(g, inner, n.Content, n.TextAlign, fill)
		if n.ID == opts.Editing {
			drawCaret(g, inner, lines, n.TextAlign, fill)
		}
	case canvas.TypeEmoji:
		drawCentered(g, inner, []string{n.Content}, fill)
	case canvas.TypeImage:
		drawCentered(g, inner, imageLabel(n.ImageURL), fill)
	}
	if selected && n.ID == opts.Primary {
		drawHandle(g, sr, b, fill, opts)
	}
}

// drawBorder draws the frame. Selected nodes use '#' throughout.
func drawBorder(g *Grid, b Box, proto Cell) {
	corner, horizontal, vertical := '+', '-', '|'
	if proto.Selected {
		corner, horizontal, vertical = '#', '#', '#'
	}
	proto.Border = true
	for x := b.Col0; x <= b.Col1; x++ {
		ch := horizontal
		if x == b.Col0 || x == b.Col1 {
			ch = corner
		}
		g.set(x, b.Row0, ch, 1, proto)
		g.set(x, b.Row1, ch, 1, proto)
	}
	for y := b.Row0 + 1; y < b.Row1; y++ {
		g.set(b.Col0, y, vertical, 1, proto)
		g.set(b.Col1, y, vertical, 1, proto)
	}
}

// drawHandle marks the cells covering the resize handle square.
func drawHandle(g *Grid, sr canvas.Rect, b Box, proto Cell, opts Options) {
	hs := math.Min(opts.HandleSize, math.Min(sr.W, sr.H))
	if hs <= 0 {
		hs = math.Min(sr.W, sr.H)
	}
	h := opts.Layout.Box(canvas.Rect{X: sr.MaxX() - hs, Y: sr.MaxY() - hs, W: hs, H: hs})
	proto.Handle = true
	proto.Border = true
	for y := max(h.Row0, b.Row0); y <= min(h.Row1, b.Row1); y++ {
		for x := max(h.Col0, b.Col0); x <= min(h.Col1, b.Col1); x++ {
			g.set(x, y, '*', 1, proto)
		}
	}
}

// Wrap word-wraps s to width display columns, breaking words longer than
// a line.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	wrapped := wrap.String(wordwrap.String(s, width), width)
	lines := strings.Split(wrapped, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// alignOffset is the column offset of a line of width lw in a box of width
// bw.
func alignOffset(align string, bw, lw int) int {
	switch align {
	case "center":
		return max(0, (bw-lw)/2)
	case "right":
		return max(0, bw-lw)
	}
	return 0
}

func drawText(g *Grid, b Box, content, align string, proto Cell) []string {
	lines := Wrap(content, b.Width())
	if len(lines) > b.Height() {
		lines = lines[:b.Height()]
	}
	for i, l := range lines {
		off := alignOffset(align, b.Width(), runewidth.StringWidth(l))
		g.putString(b.Col0+off, b.Row0+i, b.Col1+1, l, proto)
	}
	return lines
}

func drawCaret(g *Grid, b Box, lines []string, align string, proto Cell) {
	row, col := b.Row0, b.Col0
	if len(lines) > 0 {
		last := lines[len(lines)-1]
		lw := runewidth.StringWidth(last)
		row = b.Row0 + len(lines) - 1
		col = b.Col0 + alignOffset(align, b.Width(), lw) + lw
	}
	if col > b.Col1 {
		col = b.Col1
	}
	proto.Caret = true
	g.set(col, row, '_', 1, proto)
}

func drawCentered(g *Grid, b Box, lines []string, proto Cell) {
	top := b.Row0 + max(0, (b.Height()-len(lines))/2)
	for i, l := range lines {
		if top+i > b.Row1 {
			break
		}
		l = runewidth.Truncate(l, b.Width(), "")
		off := alignOffset("center", b.Width(), runewidth.StringWidth(l))
		g.putString(b.Col0+off, top+i, b.Col1+1, l, proto)
	}
}

func imageLabel(url string) []string {
	if url == "" {
		return []string{"[image]", "uploading"}
	}
	name := path.Base(url)
	if name == "." || name == "/" {
		name = url
	}
	return []string{"[image]", name}
}

func fillColor(n canvas.Node) string {
	if n.Type != canvas.TypeText {
		return ""
	}
	if n.Color == "" {
		return canvas.Palette[0]
	}
	return n.Color
}
