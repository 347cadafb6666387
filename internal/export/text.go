package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tornado/internal/canvas"
	"tornado/internal/render"
)

// TextOptions size the text export. Zero Cols or Rows fit the whole board.
type TextOptions struct {
	Cols, Rows int
	Layout     render.Layout
	// Viewport is used when Cols and Rows are set. Fitting ignores it.
	Viewport canvas.Viewport
}

// Text renders nodes the way the terminal shows them, without selection
// or status chrome, and writes the lines to w.
func Text(w io.Writer, nodes []canvas.Node, opts TextOptions) error {
	if len(nodes) == 0 {
		return ErrEmpty
	}
	if opts.Layout.CellW <= 0 || opts.Layout.CellH <= 0 {
		opts.Layout = render.DefaultLayout()
	}
	vp := opts.Viewport
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 || rows <= 0 || vp.Scale <= 0 {
		vp, cols, rows = wholeBoard(nodes, opts.Layout)
	}

	bw := bufio.NewWriter(w)
	for _, line := range render.Draw(nodes, vp, cols, rows, render.Options{Layout: opts.Layout}).Lines() {
		if _, err := fmt.Fprintln(bw, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// TextFile writes the text export to path.
func TextFile(path string, nodes []canvas.Node, opts TextOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Text(f, nodes, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// wholeBoard returns a unit-scale viewport and grid size covering every
// node with a one cell margin.
func wholeBoard(nodes []canvas.Node, l render.Layout) (canvas.Viewport, int, int) {
	b, _ := canvas.Bounds(nodes)
	vp := canvas.Viewport{Scale: 1, OffsetX: l.CellW - b.X, OffsetY: l.CellH - b.Y}
	cols := int(b.W/l.CellW) + 3
	rows := int(b.H/l.CellH) + 3
	return vp, cols, rows
}

// FileName turns a board name into a file name with extension ext.
func FileName(board, ext string) string {
	name := strings.TrimSpace(board)
	if name == "" {
		name = "board"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name) + ext
}
