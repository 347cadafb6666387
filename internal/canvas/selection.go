package canvas

// SelectionState is derived from the number of selected nodes.
type SelectionState int

const (
	SelectionNone SelectionState = iota
	SelectionSingle
	SelectionMulti
)

func (s SelectionState) String() string {
	switch s {
	case SelectionSingle:
		return "single"
	case SelectionMulti:
		return "multi"
	default:
		return "none"
	}
}

// Selection tracks the active node ids in the order they were selected. It
// never owns nodes; callers keep it a subset of the store through Evict and
// Retain.
type Selection struct {
	ids []string
}

func NewSelection() *Selection {
	return &Selection{}
}

func (s *Selection) State() SelectionState {
	switch len(s.ids) {
	case 0:
		return SelectionNone
	case 1:
		return SelectionSingle
	default:
		return SelectionMulti
	}
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Primary returns the selected id when exactly one node is selected. It
// drives the inspector.
func (s *Selection) Primary() (string, bool) {
	if len(s.ids) == 1 {
		return s.ids[0], true
	}
	return "", false
}

// SelectOnly makes id the single selection regardless of prior state.
func (s *Selection) SelectOnly(id string) {
	s.ids = []string{id}
}

// Toggle adds id when absent and removes it when present. Dropping to one
// member collapses to a single selection.
func (s *Selection) Toggle(id string) {
	if s.Contains(id) {
		s.remove(id)
		return
	}
	s.ids = append(s.ids, id)
}

// Set replaces the selection with ids, dropping repeats.
func (s *Selection) Set(ids []string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
}

func (s *Selection) Clear() {
	s.ids = nil
}

// Evict removes ids that no longer exist in the store.
func (s *Selection) Evict(ids ...string) {
	for _, id := range ids {
		s.remove(id)
	}
}

// Retain keeps only ids for which exists reports true.
func (s *Selection) Retain(exists func(id string) bool) {
	kept := s.ids[:0]
	for _, id := range s.ids {
		if exists(id) {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

func (s *Selection) remove(id string) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

// EffectiveMulti reports whether clicks toggle membership. The toolbar
// toggle and a held modifier key are independent inputs.
func EffectiveMulti(explicit, modifierHeld bool) bool {
	return explicit || modifierHeld
}
