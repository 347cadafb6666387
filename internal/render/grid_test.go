package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tornado/internal/canvas"
)

func note(id, content string) canvas.Node {
	return canvas.Node{ID: id, Type: canvas.TypeText, Width: 80, Height: 48, ZIndex: 1, Content: content}
}

func TestLayoutPixelAndBox(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, canvas.Point{X: 4, Y: 8}, l.Pixel(0, 0))
	assert.Equal(t, canvas.Point{X: 28, Y: 40}, l.Pixel(3, 2))

	b := l.Box(canvas.Rect{X: 0, Y: 0, W: 80, H: 48})
	assert.Equal(t, Box{Col0: 0, Row0: 0, Col1: 9, Row1: 2}, b)
	assert.Equal(t, 10, b.Width())
	assert.Equal(t, 3, b.Height())

	// Every drawn cell's center is inside the rectangle.
	r := canvas.Rect{X: 13, Y: 5, W: 30, H: 30}
	b = l.Box(r)
	for col := b.Col0; col <= b.Col1; col++ {
		for row := b.Row0; row <= b.Row1; row++ {
			assert.True(t, r.Contains(l.Pixel(col, row)), "cell %d,%d", col, row)
		}
	}
	assert.False(t, r.Contains(l.Pixel(b.Col0-1, b.Row0)))
	assert.False(t, r.Contains(l.Pixel(b.Col1+1, b.Row0)))
}

func TestDrawTextNode(t *testing.T) {
	g := Draw([]canvas.Node{note("a", "hi")}, canvas.DefaultViewport(), 12, 4, Options{})

	assert.Equal(t, []string{
		"+--------+  ",
		"|hi      |  ",
		"+--------+  ",
		"            ",
	}, g.Lines())
	assert.Equal(t, canvas.Palette[0], g.Cells[1][1].Fill)
	assert.Equal(t, "a", g.Cells[1][1].Node)
	assert.True(t, g.Cells[0][0].Border)
}

func TestDrawAlignment(t *testing.T) {
	n := note("a", "hi")
	n.TextAlign = "right"
	g := Draw([]canvas.Node{n}, canvas.DefaultViewport(), 10, 3, Options{})
	assert.Equal(t, "|      hi|", g.Lines()[1])

	n.TextAlign = "center"
	g = Draw([]canvas.Node{n}, canvas.DefaultViewport(), 10, 3, Options{})
	assert.Equal(t, "|   hi   |", g.Lines()[1])
}

func TestDrawSelectedPrimaryShowsHandle(t *testing.T) {
	opts := Options{
		Selected:   func(id string) bool { return id == "a" },
		Primary:    "a",
		HandleSize: 16,
	}
	g := Draw([]canvas.Node{note("a", "")}, canvas.DefaultViewport(), 10, 3, opts)

	assert.Equal(t, []string{
		"##########",
		"#        #",
		"########**",
	}, g.Lines())
	assert.True(t, g.Cells[2][9].Handle)
	assert.False(t, g.Cells[2][7].Handle)
}

func TestDrawPaintsByZIndex(t *testing.T) {
	below := note("below", "under")
	above := note("above", "over")
	above.X, above.Y = 16, 16
	above.ZIndex = 5

	g := Draw([]canvas.Node{above, below}, canvas.DefaultViewport(), 14, 5, Options{})
	lines := g.Lines()
	assert.Equal(t, "|u+--------+", lines[1][:12])
	assert.Equal(t, "above", g.Cells[2][4].Node)
}

func TestDrawFollowsViewport(t *testing.T) {
	vp := canvas.Viewport{OffsetX: 16, OffsetY: 16, Scale: 0.5}
	tall := note("a", "")
	tall.Height = 96
	g := Draw([]canvas.Node{tall}, vp, 10, 4, Options{})
	// 40x48 screen pixels from (16,16): cols 2..6, rows 1..3.
	assert.Equal(t, "  +---+   ", g.Lines()[1])

	g = Draw([]canvas.Node{note("a", "x")}, canvas.Viewport{OffsetX: -1000, Scale: 1}, 10, 4, Options{})
	for _, l := range g.Lines() {
		assert.Equal(t, "          ", l)
	}
}

func TestDrawWideRunes(t *testing.T) {
	emoji := canvas.Node{ID: "e", Type: canvas.TypeEmoji, Width: 80, Height: 48, ZIndex: 1, Content: "😀"}
	g := Draw([]canvas.Node{emoji}, canvas.DefaultViewport(), 10, 3, Options{})
	assert.Equal(t, "|   😀   |", g.Lines()[1])
	assert.Equal(t, "", g.Cells[1][4].Fill)
	assert.True(t, g.Cells[1][5].Cont)

	// Overwriting the right half of a wide rune blanks its left half.
	g.set(5, 1, 'x', 1, Cell{})
	assert.Equal(t, "|    x   |", g.Lines()[1])
}

func TestDrawImagePlaceholder(t *testing.T) {
	img := canvas.Node{ID: "i", Type: canvas.TypeImage, Width: 160, Height: 64, ZIndex: 1, ImageURL: "file:///tmp/assets/cat.jpg"}
	g := Draw([]canvas.Node{img}, canvas.DefaultViewport(), 20, 4, Options{})
	lines := g.Lines()
	assert.Contains(t, lines[1], "[image]")
	assert.Contains(t, lines[2], "cat.jpg")
}

func TestDrawEditingCaret(t *testing.T) {
	g := Draw([]canvas.Node{note("a", "hi")}, canvas.DefaultViewport(), 10, 3, Options{Editing: "a"})
	assert.Equal(t, "|hi_     |", g.Lines()[1])
	assert.True(t, g.Cells[1][3].Caret)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Wrap("hello world", 5))
	assert.Equal(t, []string{"abc", "def", "gh"}, Wrap("abcdefgh", 3))
	assert.Equal(t, []string{"a", "b"}, Wrap("a\nb", 10))
	assert.Nil(t, Wrap("x", 0))
}

func TestNewGridClampsNegative(t *testing.T) {
	g := NewGrid(-1, -1)
	require.NotNil(t, g)
	assert.Empty(t, g.Lines())
}
