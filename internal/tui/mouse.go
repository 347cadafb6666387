package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tornado/internal/canvas"
)

// handleMouse maps a terminal mouse event to board pointer input. A cell
// stands for the pixel at its center.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	inCanvas := msg.Y < m.canvasRows()
	if !inCanvas && !m.pressed {
		return
	}
	p := m.layout.Pixel(msg.X, msg.Y)
	m.mouse, m.hasMouse = p, true
	mods := canvas.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Alt: msg.Alt}
	ev := canvas.PointerEvent{Pos: p, Mods: mods}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.session.Wheel(canvas.WheelEvent{Pos: p, DeltaY: -1})
			return
		case tea.MouseButtonWheelDown:
			m.session.Wheel(canvas.WheelEvent{Pos: p, DeltaY: 1})
			return
		case tea.MouseButtonLeft:
			ev.Button = canvas.ButtonLeft
		case tea.MouseButtonMiddle:
			ev.Button = canvas.ButtonMiddle
		case tea.MouseButtonRight:
			ev.Button = canvas.ButtonRight
		default:
			return
		}
		m.pressed = ev.Button != canvas.ButtonRight
		m.session.PointerDown(ev)
	case tea.MouseActionMotion:
		if !m.pressed {
			m.session.SetModifierHeld(msg.Ctrl)
			return
		}
		m.session.PointerMove(ev)
	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		m.session.PointerUp(ev)
	}
}

// anchor is where keyboard-added nodes go: under the mouse when it has been
// seen, otherwise the session's random placement.
func (m Model) anchor() *canvas.Point {
	if !m.hasMouse {
		return nil
	}
	p := m.session.Viewport().ToWorld(m.mouse)
	return &p
}

// pasteTarget is the world point a paste lands on.
func (m Model) pasteTarget() canvas.Point {
	if p := m.anchor(); p != nil {
		return *p
	}
	w, h := m.layout.Size(m.width, m.canvasRows())
	return m.session.Viewport().ToWorld(canvas.Point{X: w / 2, Y: h / 2})
}
