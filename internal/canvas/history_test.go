package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRestoresDeletedNode(t *testing.T) {
	one := Node{ID: "1", Type: TypeText, X: 12, Y: 34, Width: 220, Height: 150, ZIndex: 3, Color: "pink", Content: "hi", FontScale: 1.4, TextAlign: "center"}
	s := storeWith(t, one, newNode("2", 1))
	h := NewHistory(0)

	h.Snapshot(s.Nodes())
	s.Remove("1")

	restored, ok := h.Undo(s.Nodes())
	require.True(t, ok)
	s.Replace(restored)

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, one, got)
}

func TestUndoRedoInverse(t *testing.T) {
	s := storeWith(t, newNode("a", 1), newNode("b", 2))
	h := NewHistory(0)
	pre := s.Nodes()

	h.Snapshot(s.Nodes())
	s.Move("a", Point{40, 40})
	h.Snapshot(s.Nodes())
	s.Restack("a", ToFront)
	h.Snapshot(s.Nodes())
	s.Remove("b")
	post := s.Nodes()

	for h.CanUndo() {
		restored, _ := h.Undo(s.Nodes())
		s.Replace(restored)
	}
	assert.Equal(t, pre, s.Nodes())

	for h.CanRedo() {
		restored, _ := h.Redo(s.Nodes())
		s.Replace(restored)
	}
	assert.Equal(t, post, s.Nodes())
}

func TestSnapshotClearsRedo(t *testing.T) {
	h := NewHistory(0)
	h.Snapshot(nil)
	_, ok := h.Undo([]Node{newNode("a", 1)})
	require.True(t, ok)
	assert.True(t, h.CanRedo())

	h.Snapshot(nil)

	assert.False(t, h.CanRedo())
}

func TestEmptyHistoryIsNoOp(t *testing.T) {
	h := NewHistory(0)

	_, ok := h.Undo(nil)
	assert.False(t, ok)
	_, ok = h.Redo(nil)
	assert.False(t, ok)
	assert.False(t, h.CanRedo())
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Snapshot([]Node{newNode("first", 1)})
	h.Snapshot([]Node{newNode("second", 1)})
	h.Snapshot([]Node{newNode("third", 1)})

	h.Undo(nil)
	restored, ok := h.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, "second", restored[0].ID)
	assert.False(t, h.CanUndo())
}

func TestHistoryDiscard(t *testing.T) {
	h := NewHistory(0)
	h.Snapshot(nil)
	h.Discard()
	h.Discard()

	assert.False(t, h.CanUndo())
}

func TestDiscardRestoresEvictedEntry(t *testing.T) {
	h := NewHistory(1)
	h.Snapshot([]Node{newNode("kept", 1)})
	h.Snapshot([]Node{newNode("unchanged", 1)})
	h.Discard()

	restored, ok := h.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, "kept", restored[0].ID)
}

func TestDiscardRestoresRedo(t *testing.T) {
	h := NewHistory(0)
	h.Snapshot([]Node{newNode("a", 1)})
	h.Undo([]Node{newNode("b", 1)})
	require.True(t, h.CanRedo())

	h.Snapshot(nil)
	assert.False(t, h.CanRedo())
	h.Discard()

	restored, ok := h.Redo(nil)
	require.True(t, ok)
	assert.Equal(t, "b", restored[0].ID)
}

func TestDiscardAfterUndoOnlyDropsTop(t *testing.T) {
	h := NewHistory(1)
	h.Snapshot([]Node{newNode("old", 1)})
	h.Snapshot([]Node{newNode("new", 1)})
	h.Undo(nil)
	h.Discard()

	assert.False(t, h.CanUndo())
}
