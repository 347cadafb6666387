package canvas

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// Command reports whether the platform command modifier (ctrl or cmd) is
// down.
func (m Modifiers) Command() bool { return m.Ctrl || m.Meta }

// PointerEvent is a press, motion or release at a screen position in
// pixels.
type PointerEvent struct {
	Pos    Point
	Button Button
	Mods   Modifiers
}

// WheelEvent carries a vertical wheel delta; negative values scroll up.
type WheelEvent struct {
	Pos    Point
	DeltaY float64
}

// KeyEvent names a key in lower case ("z", "delete", "escape") together
// with the modifiers held.
type KeyEvent struct {
	Key  string
	Mods Modifiers
}
