package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tornado/internal/canvas"
	"tornado/internal/docstore"
	"tornado/internal/export"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeHelp:
		return m.helpKey(msg)
	case ModeStartup:
		return m.startupKey(msg)
	case ModeNormal:
		return m.normalKey(msg)
	case ModeEditing:
		return m.editKey(msg)
	case ModeConfirm:
		return m.confirmKey(msg)
	case ModeProjects:
		return m.projectsKey(msg)
	case ModeInput:
		return m.inputKey(msg)
	}
	return m, nil
}

func (m Model) startupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		m.newBoard()
		return m, nil
	case "o":
		return m.openProjects()
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) normalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	key := msg.String()
	if key != "?" {
		m.status = ""
	}

	switch key {
	case "esc":
		if !s.Key(canvas.KeyEvent{Key: "escape"}) {
			s.ClearSelection()
		}
		m.errorMsg = ""
	case "ctrl+z":
		s.Key(canvas.KeyEvent{Key: "z", Mods: canvas.Modifiers{Ctrl: true}})
	case "ctrl+y":
		s.Key(canvas.KeyEvent{Key: "y", Mods: canvas.Modifiers{Ctrl: true}})
	case "ctrl+shift+z":
		s.Key(canvas.KeyEvent{Key: "z", Mods: canvas.Modifiers{Ctrl: true, Shift: true}})
	case "u":
		if !s.Undo() {
			m.status = "Nothing to undo"
		}
	case "U":
		if !s.Redo() {
			m.status = "Nothing to redo"
		}

	case "t":
		if n := s.AddNode(canvas.TypeText, m.anchor()); n.ID != "" {
			m.beginEdit(n.ID)
		}
	case "e":
		s.AddNode(canvas.TypeEmoji, m.anchor())
	case "i":
		if n := s.AddNode(canvas.TypeImage, m.anchor()); n.ID != "" {
			m.startInput(InputImagePath, n.ID, "")
		}
	case "enter":
		n, ok := s.Primary()
		if !ok {
			return m, nil
		}
		if n.Type == canvas.TypeImage {
			m.startInput(InputImagePath, n.ID, "")
		} else {
			m.beginEdit(n.ID)
		}

	case "m":
		if s.ToggleMultiSelect() {
			m.status = "Multi-select on"
		} else {
			m.status = "Multi-select off"
		}
	case " ":
		if s.TogglePanMode() {
			m.status = "Pan mode: drag to move the board"
		} else {
			m.status = "Pan mode off"
		}
	case "f":
		if !s.Fit() {
			m.status = "Nothing to fit"
		}
	case "+", "=":
		s.ZoomIn()
	case "-", "_":
		s.ZoomOut()
	case "0":
		s.ResetViewport()
	case "left", "h", "right", "l", "up", "k", "down", "j",
		"shift+left", "H", "shift+right", "L", "shift+up", "K", "shift+down", "J":
		m.pan(key)

	case "]":
		s.BringToFront()
	case "[":
		s.SendToBack()
	case "1", "2", "3", "4", "5":
		s.SetColor(canvas.Palette[int(key[0]-'1')])
	case "<", ",":
		s.StepFontScale(-1)
	case ">", ".":
		s.StepFontScale(1)
	case "a":
		s.CycleAlign()

	case "d", "delete", "backspace":
		if len(s.Selected()) == 0 {
			return m, nil
		}
		if m.cfg.UI.Confirmations {
			m.askConfirm(ConfirmDeleteNodes, "")
			return m, nil
		}
		s.Key(canvas.KeyEvent{Key: "delete"})
	case "X":
		if len(s.Nodes()) == 0 {
			return m, nil
		}
		if m.cfg.UI.Confirmations {
			m.askConfirm(ConfirmClearBoard, "")
			return m, nil
		}
		s.ClearAll()

	case "c":
		m.copySelection()
	case "p":
		m.paste()

	case "n":
		m.newBoard()
	case "o":
		return m.openProjects()
	case "s":
		m.startInput(InputExportPNG, "", export.FileName(m.board.name, ".png"))
	case "S":
		m.startInput(InputExportTXT, "", export.FileName(m.board.name, ".txt"))
	case "?":
		m.helpReturn = m.mode
		m.mode = ModeHelp
		m.helpScroll = 0
	case "q", "ctrl+c":
		if m.cfg.UI.Confirmations {
			m.askConfirm(ConfirmQuit, "")
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// pan moves the view by the configured number of cells, twice as far with
// shift. The direction is where the view goes, so content moves opposite.
func (m *Model) pan(key string) {
	step := m.cfg.UI.PanStep
	if step <= 0 {
		step = 4
	}
	if strings.HasPrefix(key, "shift+") || (len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z') {
		step *= 2
	}
	dx := float64(step) * m.layout.CellW
	dy := float64(step) * m.layout.CellH
	var d canvas.Point
	switch strings.ToLower(strings.TrimPrefix(key, "shift+")) {
	case "left", "h":
		d.X = dx
	case "right", "l":
		d.X = -dx
	case "up", "k":
		d.Y = dy
	case "down", "j":
		d.Y = -dy
	}
	m.session.PanBy(d)
}

func (m *Model) beginEdit(id string) {
	if !m.session.BeginEdit(id) {
		return
	}
	n, _ := m.session.Node(id)
	m.editText = []rune(n.Content)
	m.mode = ModeEditing
}

func (m *Model) finishEdit() {
	m.session.EndEdit()
	m.editText = nil
	m.mode = ModeNormal
}

// editKey types into the node being edited. Every keystroke is applied to
// the board; the whole session is one undo step.
func (m Model) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlS:
		m.finishEdit()
		return m, nil
	case tea.KeyEnter:
		m.editText = append(m.editText, '\n')
	case tea.KeyBackspace:
		if len(m.editText) == 0 {
			return m, nil
		}
		m.editText = m.editText[:len(m.editText)-1]
	case tea.KeySpace:
		m.editText = append(m.editText, ' ')
	case tea.KeyTab:
		m.editText = append(m.editText, '\t')
	case tea.KeyRunes:
		m.editText = append(m.editText, msg.Runes...)
	default:
		return m, nil
	}
	if !m.session.EditContent(string(m.editText)) {
		m.finishEdit()
	}
	return m, nil
}

func (m *Model) askConfirm(action ConfirmAction, target string) {
	m.confirm = action
	m.confirmTarget = target
	m.confirmReturn = m.mode
	m.mode = ModeConfirm
}

func (m Model) confirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = m.confirmReturn
		switch m.confirm {
		case ConfirmDeleteNodes:
			n := len(m.session.Selected())
			m.session.Key(canvas.KeyEvent{Key: "delete"})
			m.status = fmt.Sprintf("Deleted %d node(s)", n)
		case ConfirmClearBoard:
			m.session.ClearAll()
		case ConfirmDeleteProject:
			return m, m.deleteProject(m.confirmTarget)
		case ConfirmQuit:
			m.quitting = true
			return m, tea.Quit
		}
	case "n", "N", "esc", "q":
		m.mode = m.confirmReturn
	}
	return m, nil
}

func (m *Model) startInput(p InputPurpose, target, prefill string) {
	m.input = p
	m.inputTarget = target
	m.inputText = prefill
	m.inputReturn = m.mode
	m.mode = ModeInput
}

func (m Model) inputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = m.inputReturn
		m.inputText = ""
	case tea.KeyEnter:
		return m.submitInput()
	case tea.KeyBackspace:
		if r := []rune(m.inputText); len(r) > 0 {
			m.inputText = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.inputText += " "
	case tea.KeyRunes:
		m.inputText += string(msg.Runes)
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.inputText)
	m.inputText = ""
	m.mode = m.inputReturn
	if text == "" {
		return m, nil
	}
	switch m.input {
	case InputImagePath:
		m.status = "Uploading " + text
		return m, m.importImage(m.inputTarget, text)
	case InputExportPNG, InputExportTXT:
		if len(m.session.Nodes()) == 0 {
			m.errorMsg = "export: board is empty"
			return m, nil
		}
		m.status = "Exporting"
		return m, m.exportBoard(m.input, text)
	case InputNewProject, InputRenameProject:
		if m.store == nil {
			return m, nil
		}
		if err := docstore.ValidateRequest(docstore.ProjectRequest{Name: text}); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		if m.input == InputNewProject {
			return m, m.createProject(text)
		}
		return m, m.renameProject(m.inputTarget, text)
	}
	return m, nil
}

func (m *Model) copySelection() {
	var nodes []canvas.Node
	for _, id := range m.session.Selected() {
		if n, ok := m.session.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		m.status = "Nothing selected"
		return
	}
	text, err := encodeClip(nodes)
	if err == nil {
		err = m.clip.WriteAll(text)
	}
	if err != nil {
		m.errorMsg = "copy: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("Copied %d node(s)", len(nodes))
}

// paste restores copied nodes, or turns plain clipboard text into a note.
func (m *Model) paste() {
	text, err := m.clip.ReadAll()
	if err != nil {
		m.errorMsg = "paste: " + err.Error()
		return
	}
	at := m.pasteTarget()
	if nodes, ok := decodeClip(text); ok {
		ids := m.session.Paste(nodes, at)
		m.status = fmt.Sprintf("Pasted %d node(s)", len(ids))
		return
	}
	text = cleanClipboardText(text)
	if strings.TrimSpace(text) == "" {
		m.status = "Clipboard is empty"
		return
	}
	m.session.PasteText(text, at)
}
