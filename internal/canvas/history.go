package canvas

// History keeps linear undo/redo stacks of full node collections.
//
// The redo stack is only non-empty right after Undo; any Snapshot empties it.
type History struct {
	undo  [][]Node
	redo  [][]Node
	limit int
	// last is what the most recent Snapshot displaced, so Discard can put
	// it back. Any other operation clears it.
	last *displaced
}

type displaced struct {
	evicted    []Node
	hasEvicted bool
	redo       [][]Node
}

// NewHistory returns a history keeping at most limit undo entries. A limit
// of zero or less keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Snapshot records current as the state to return to on the next Undo.
func (h *History) Snapshot(current []Node) {
	d := &displaced{redo: h.redo}
	h.undo = append(h.undo, Clone(current))
	if h.limit > 0 && len(h.undo) > h.limit {
		d.evicted, d.hasEvicted = h.undo[0], true
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	h.last = d
}

// Undo pops the last snapshot and pushes current onto the redo stack. ok is
// false when there is nothing to undo.
func (h *History) Undo(current []Node) (restored []Node, ok bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	h.last = nil
	last := len(h.undo) - 1
	restored = h.undo[last]
	h.undo = h.undo[:last]
	h.redo = append(h.redo, Clone(current))
	return Clone(restored), true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current []Node) (restored []Node, ok bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	h.last = nil
	last := len(h.redo) - 1
	restored = h.redo[last]
	h.redo = h.redo[:last]
	h.undo = append(h.undo, Clone(current))
	return Clone(restored), true
}

// Discard drops the most recent snapshot without restoring it. It is used
// when an operation that snapshotted up front turned out to change nothing.
// Directly after Snapshot it also brings back the entry the limit evicted
// and the redo stack Snapshot emptied.
func (h *History) Discard() {
	if len(h.undo) == 0 {
		return
	}
	h.undo = h.undo[:len(h.undo)-1]
	if d := h.last; d != nil {
		if d.hasEvicted {
			h.undo = append([][]Node{d.evicted}, h.undo...)
		}
		h.redo = d.redo
	}
	h.last = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset drops both stacks, as when switching projects.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
	h.last = nil
}
