package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tornado/internal/canvas"
	"tornado/internal/render"
)

var (
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true)
	handleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	inspectorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	statusStyle    = lipgloss.NewStyle().Reverse(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
)

type cellKind int

const (
	kindPlain cellKind = iota
	kindBorder
	kindSelected
	kindHandle
	kindCaret
)

type styleKey struct {
	fill string
	kind cellKind
}

func kindOf(c render.Cell) cellKind {
	switch {
	case c.Caret:
		return kindCaret
	case c.Handle:
		return kindHandle
	case c.Border && c.Selected:
		return kindSelected
	case c.Border:
		return kindBorder
	}
	return kindPlain
}

func (k styleKey) style() lipgloss.Style {
	var st lipgloss.Style
	switch k.kind {
	case kindBorder:
		st = borderStyle
	case kindSelected:
		st = selectedStyle
	case kindHandle:
		st = handleStyle
	case kindCaret:
		st = lipgloss.NewStyle().Reverse(true)
	default:
		st = lipgloss.NewStyle()
	}
	if k.fill != "" {
		st = st.Background(lipgloss.Color(canvas.ColorHex(k.fill)))
		if k.kind == kindPlain {
			st = st.Foreground(lipgloss.Color("#111827"))
		}
	}
	return st
}

// styleGrid renders the grid as terminal lines, styling runs of cells that
// share a look in one go.
func styleGrid(g *render.Grid) []string {
	out := make([]string, 0, g.Rows)
	var line, run strings.Builder
	for _, row := range g.Cells {
		line.Reset()
		run.Reset()
		cur := styleKey{}
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur == (styleKey{}) {
				line.WriteString(run.String())
			} else {
				line.WriteString(cur.style().Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range row {
			if c.Cont {
				continue
			}
			k := styleKey{fill: c.Fill, kind: kindOf(c)}
			if k != cur {
				flush()
				cur = k
			}
			run.WriteRune(c.Ch)
		}
		flush()
		out = append(out, line.String())
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.mode {
	case ModeStartup:
		return m.startupView()
	case ModeHelp:
		return m.helpView()
	case ModeProjects:
		return m.projectsView()
	case ModeInput:
		if m.inputReturn == ModeProjects {
			return m.projectsView()
		}
	case ModeConfirm:
		if m.confirmReturn == ModeProjects {
			return m.projectsView()
		}
	}

	s := m.session
	editing, _ := s.Editing()
	primary := ""
	if n, ok := s.Primary(); ok {
		primary = n.ID
	}
	g := render.Draw(s.PaintOrder(), s.Viewport(), max(1, m.width), m.canvasRows(), render.Options{
		Layout:     m.layout,
		Selected:   s.IsSelected,
		Primary:    primary,
		Editing:    editing,
		HandleSize: m.cfg.Canvas.HandleSize,
	})

	var b strings.Builder
	for _, l := range styleGrid(g) {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(inspectorStyle.Render(truncate(m.inspectorLine(), m.width)))
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

// inspectorLine describes the selection: full properties for a single node,
// a count for several.
func (m Model) inspectorLine() string {
	s := m.session
	switch s.SelectionState() {
	case canvas.SelectionNone:
		return fmt.Sprintf("No selection | new color: %s | %d node(s)", s.Color(), len(s.Nodes()))
	case canvas.SelectionMulti:
		return fmt.Sprintf("%d selected | drag any to move together", len(s.Selected()))
	}
	n, ok := s.Primary()
	if !ok {
		return ""
	}
	parts := []string{
		strings.ToUpper(string(n.Type)),
		fmt.Sprintf("pos %.0f,%.0f", n.X, n.Y),
		fmt.Sprintf("size %.0fx%.0f", n.Width, n.Height),
		fmt.Sprintf("z %d", n.ZIndex),
		fmt.Sprintf("font %.1f", n.FontScale),
	}
	switch n.Type {
	case canvas.TypeText:
		parts = append(parts, "color "+n.Color, "align "+n.TextAlign)
	case canvas.TypeImage:
		if n.ImageURL == "" {
			parts = append(parts, "no image (enter to pick a file)")
		} else {
			parts = append(parts, n.ImageURL)
		}
	}
	return strings.Join(parts, " | ")
}

func (m Model) statusView() string {
	var status string
	switch m.mode {
	case ModeEditing:
		text := strings.ReplaceAll(string(m.editText), "\n", "⏎")
		status = fmt.Sprintf("Mode: EDIT | Text: %s█ | Enter=newline, Esc/Ctrl+S=done", text)
	case ModeConfirm:
		status = "Mode: CONFIRM | " + m.confirmPrompt() + " (y/n)"
	case ModeInput:
		status = fmt.Sprintf("Mode: INPUT | %s: %s█ | Enter=confirm, Esc=cancel", m.input.prompt(), m.inputText)
	default:
		flags := ""
		if m.session.MultiSelect() {
			flags += " | MULTI"
		}
		if m.session.PanMode() {
			flags += " | PAN"
		}
		zoom := int(math.Round(m.session.Viewport().Scale * 100))
		status = fmt.Sprintf("Mode: %s | %s | Zoom: %d%%%s", m.mode, m.board.name, zoom, flags)
		if m.status != "" {
			status += " | " + m.status
		}
		status += " | ? for help | q to quit"
	}
	status = truncate(status, m.width)
	if m.errorMsg != "" && m.mode != ModeConfirm && m.mode != ModeInput {
		return errorStyle.Render(truncate("ERROR: "+m.errorMsg, m.width))
	}
	return statusStyle.Render(status)
}

func (m Model) confirmPrompt() string {
	switch m.confirm {
	case ConfirmDeleteNodes:
		n := len(m.session.Selected())
		if n == 1 {
			return "Delete this node?"
		}
		return fmt.Sprintf("Delete %d nodes?", n)
	case ConfirmClearBoard:
		return "Clear the whole board?"
	case ConfirmDeleteProject:
		return "Delete this project?"
	case ConfirmQuit:
		return "Quit tornado?"
	}
	return "Are you sure?"
}

func (m Model) startupView() string {
	lines := []string{
		titleStyle.Render("tornado"),
		"",
		"a board of sticky notes, emoji and images",
		"",
		"n  new board",
		"o  open a project",
		"q  quit",
	}
	var b strings.Builder
	top := max(0, (m.height-len(lines)-1)/2)
	b.WriteString(strings.Repeat("\n", top))
	for _, l := range lines {
		pad := max(0, (m.width-lipgloss.Width(l))/2)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(l)
		b.WriteString("\n")
	}
	rest := m.height - top - len(lines) - 1
	if rest > 0 {
		b.WriteString(strings.Repeat("\n", rest))
	}
	status := "Press 'n' for a new board, 'o' to open a project, or 'q' to quit"
	if m.errorMsg != "" {
		return b.String() + errorStyle.Render(truncate("ERROR: "+m.errorMsg, m.width))
	}
	b.WriteString(statusStyle.Render(truncate(status, m.width)))
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
