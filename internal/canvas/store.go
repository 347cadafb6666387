package canvas

import (
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
)

var ErrDuplicateID = errors.New("canvas: duplicate node id")

// StackOp selects the direction of a restack.
type StackOp int

const (
	ToFront StackOp = iota
	ToBack
)

// Store is the authoritative ordered collection of nodes. Insertion order is
// kept; paint order is decided by ZIndex with insertion order breaking ties.
//
// Every mutator returns a copy of the full collection so callers can hand it
// straight to persistence.
type Store struct {
	nodes []Node
}

func NewStore() *Store {
	return &Store{nodes: make([]Node, 0)}
}

func (s *Store) indexOf(id string) int {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Nodes() []Node {
	return Clone(s.nodes)
}

func (s *Store) Len() int {
	return len(s.nodes)
}

func (s *Store) Has(id string) bool {
	return s.indexOf(id) >= 0
}

func (s *Store) Get(id string) (Node, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.nodes[i], true
	}
	return Node{}, false
}

// MaxZ returns the highest ZIndex in the store, or 0 when it is empty.
func (s *Store) MaxZ() int {
	max := 0
	for i, n := range s.nodes {
		if i == 0 || n.ZIndex > max {
			max = n.ZIndex
		}
	}
	return max
}

// Add appends n. An empty ID is filled with a fresh uuid; an ID already in
// the store is rejected. Size is clamped to the type minimum.
func (s *Store) Add(n Node) ([]Node, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if s.Has(n.ID) {
		return s.Nodes(), ErrDuplicateID
	}
	if !n.Type.Valid() {
		n.Type = TypeText
	}
	n.Width, n.Height = ClampSize(n.Type, n.Width, n.Height)
	s.nodes = append(s.nodes, n)
	return s.Nodes(), nil
}

// UpdateGeometry sets position and size of id. Sizes under the type minimum
// are clamped. Unknown ids are ignored.
func (s *Store) UpdateGeometry(id string, g Geometry) []Node {
	i := s.indexOf(id)
	if i < 0 {
		return s.Nodes()
	}
	n := &s.nodes[i]
	if !math.IsNaN(g.X) && !math.IsInf(g.X, 0) {
		n.X = g.X
	}
	if !math.IsNaN(g.Y) && !math.IsInf(g.Y, 0) {
		n.Y = g.Y
	}
	n.Width, n.Height = ClampSize(n.Type, g.Width, g.Height)
	return s.Nodes()
}

// Move sets only the position of id.
func (s *Store) Move(id string, p Point) []Node {
	n, ok := s.Get(id)
	if !ok {
		return s.Nodes()
	}
	return s.UpdateGeometry(id, Geometry{X: p.X, Y: p.Y, Width: n.Width, Height: n.Height})
}

// UpdateFields applies the non-nil fields of p to id.
func (s *Store) UpdateFields(id string, p Patch) []Node {
	i := s.indexOf(id)
	if i < 0 {
		return s.Nodes()
	}
	n := &s.nodes[i]
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.FontScale != nil {
		n.FontScale = ClampFontScale(*p.FontScale)
	}
	if p.TextAlign != nil {
		n.TextAlign = *p.TextAlign
	}
	if p.ImageURL != nil {
		n.ImageURL = *p.ImageURL
	}
	return s.Nodes()
}

func (s *Store) Remove(id string) []Node {
	return s.RemoveMany([]string{id})
}

func (s *Store) RemoveMany(ids []string) []Node {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if !drop[n.ID] {
			kept = append(kept, n)
		}
	}
	s.nodes = kept
	return s.Nodes()
}

// Restack moves id to the top or the bottom of the paint order.
//
// ToFront gives the node max(z)+1. ToBack gives it 1 and raises every other
// node by one, keeping their relative order; when existing values are below
// one the others are raised far enough to stay above the target.
func (s *Store) Restack(id string, op StackOp) []Node {
	i := s.indexOf(id)
	if i < 0 {
		return s.Nodes()
	}
	switch op {
	case ToFront:
		s.nodes[i].ZIndex = s.MaxZ() + 1
	case ToBack:
		shift := 1
		first := true
		minOther := 0
		for j, n := range s.nodes {
			if j == i {
				continue
			}
			if first || n.ZIndex < minOther {
				minOther = n.ZIndex
				first = false
			}
		}
		if !first && minOther+shift <= 1 {
			shift = 2 - minOther
		}
		for j := range s.nodes {
			if j == i {
				s.nodes[j].ZIndex = 1
				continue
			}
			s.nodes[j].ZIndex += shift
		}
	}
	return s.Nodes()
}

func (s *Store) Clear() []Node {
	s.nodes = s.nodes[:0]
	return s.Nodes()
}

// Replace swaps in a whole collection, as when loading a project or
// restoring a history entry. Records without an id and repeated ids are
// dropped; sizes are clamped.
func (s *Store) Replace(nodes []Node) []Node {
	s.nodes = make([]Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if !n.Type.Valid() {
			n.Type = TypeText
		}
		n.Width, n.Height = ClampSize(n.Type, n.Width, n.Height)
		s.nodes = append(s.nodes, n)
	}
	return s.Nodes()
}

// PaintOrder returns the nodes sorted bottom to top.
func (s *Store) PaintOrder() []Node {
	return SortByZ(s.nodes)
}

// HitTest returns the topmost node containing the world point p.
func (s *Store) HitTest(p Point) (Node, bool) {
	order := SortByZ(s.nodes)
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Bounds().Contains(p) {
			return order[i], true
		}
	}
	return Node{}, false
}

// SortByZ returns a copy of nodes ordered by ZIndex, keeping input order for
// equal values.
func SortByZ(nodes []Node) []Node {
	out := Clone(nodes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
