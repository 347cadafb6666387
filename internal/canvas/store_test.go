package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(id string, z int) Node {
	return Node{ID: id, Type: TypeText, Width: 220, Height: 150, ZIndex: z}
}

func storeWith(t *testing.T, nodes ...Node) *Store {
	t.Helper()
	s := NewStore()
	for _, n := range nodes {
		_, err := s.Add(n)
		require.NoError(t, err)
	}
	return s
}

func TestStoreAdd(t *testing.T) {
	s := NewStore()

	out, err := s.Add(Node{Type: TypeEmoji, Width: 10, Height: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, 40.0, out[0].Width)
	assert.Equal(t, 40.0, out[0].Height)

	_, err = s.Add(Node{ID: out[0].ID, Type: TypeText})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestStoreReturnsCopies(t *testing.T) {
	s := storeWith(t, newNode("a", 1))

	out := s.Nodes()
	out[0].X = 999

	n, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 0.0, n.X)
}

func TestStoreUpdateGeometryClamps(t *testing.T) {
	s := storeWith(t, Node{ID: "img", Type: TypeImage, Width: 300, Height: 200})

	s.UpdateGeometry("img", Geometry{X: 5, Y: 6, Width: 10, Height: math.NaN()})

	n, _ := s.Get("img")
	assert.Equal(t, Geometry{X: 5, Y: 6, Width: 50, Height: 50}, n.Geometry())
}

func TestStoreMissingIDsAreNoOps(t *testing.T) {
	s := storeWith(t, newNode("a", 1))
	before := s.Nodes()

	c := "pink"
	assert.Equal(t, before, s.UpdateGeometry("zz", Geometry{X: 1, Y: 1, Width: 300, Height: 300}))
	assert.Equal(t, before, s.UpdateFields("zz", Patch{Color: &c}))
	assert.Equal(t, before, s.Remove("zz"))
	assert.Equal(t, before, s.Restack("zz", ToFront))
}

func TestStoreUpdateFields(t *testing.T) {
	s := storeWith(t, newNode("a", 1))
	c, content, scale := "green", "hello", 9.0

	s.UpdateFields("a", Patch{Color: &c, Content: &content, FontScale: &scale})

	n, _ := s.Get("a")
	assert.Equal(t, "green", n.Color)
	assert.Equal(t, "hello", n.Content)
	assert.Equal(t, MaxFontScale, n.FontScale)
}

func TestRestackToFront(t *testing.T) {
	s := storeWith(t, newNode("a", 1), newNode("b", 2), newNode("c", 3))

	s.Restack("a", ToFront)

	a, _ := s.Get("a")
	for _, n := range s.Nodes() {
		if n.ID != "a" {
			assert.Greater(t, a.ZIndex, n.ZIndex)
		}
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids(s.PaintOrder()))
}

func TestRestackToBack(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{"ascending", []Node{newNode("a", 1), newNode("b", 2), newNode("c", 3)}},
		{"all zero", []Node{newNode("a", 0), newNode("b", 0), newNode("c", 0)}},
		{"negative", []Node{newNode("a", -4), newNode("b", 7), newNode("c", 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storeWith(t, tt.nodes...)
			others := ids(SortByZ(without(s.Nodes(), "c")))

			s.Restack("c", ToBack)

			c, _ := s.Get("c")
			assert.Equal(t, 1, c.ZIndex)
			for _, n := range s.Nodes() {
				if n.ID != "c" {
					assert.Less(t, c.ZIndex, n.ZIndex)
				}
			}
			assert.Equal(t, others, ids(SortByZ(without(s.Nodes(), "c"))))
		})
	}
}

func TestStoreReplaceNormalizes(t *testing.T) {
	s := NewStore()

	out := s.Replace([]Node{
		newNode("a", 1),
		{ID: "", Type: TypeText},
		newNode("a", 5),
		{ID: "b", Type: "sticker", Width: 1, Height: 1},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ZIndex)
	assert.Equal(t, TypeText, out[1].Type)
	assert.Equal(t, 220.0, out[1].Width)
}

func TestHitTestPicksTopmost(t *testing.T) {
	s := storeWith(t, newNode("low", 1), newNode("high", 2), newNode("tie", 2))

	n, ok := s.HitTest(Point{10, 10})
	require.True(t, ok)
	assert.Equal(t, "tie", n.ID)

	_, ok = s.HitTest(Point{-1, -1})
	assert.False(t, ok)
}

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func without(nodes []Node, id string) []Node {
	var out []Node
	for _, n := range nodes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#FBCFE8", ColorHex("pink"))
	assert.Equal(t, ColorHex(Palette[0]), ColorHex("mauve"))
	for _, c := range Palette {
		assert.NotEmpty(t, paletteHex[c], c)
	}
}
