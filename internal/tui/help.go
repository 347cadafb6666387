package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

var helpLines = []string{
	"Tornado Help",
	"============",
	"",
	"Mouse:",
	"------",
	"  Click            Select a node (click empty space to clear)",
	"  Ctrl+Click       Add or remove a node from the selection",
	"  Drag             Move the node, or every selected node together",
	"  Drag corner *    Resize, keeping the aspect ratio",
	"  Shift+Drag *     Resize freely",
	"  Middle drag      Pan the board",
	"  Wheel            Zoom around the pointer",
	"",
	"Nodes:",
	"------",
	"  t                Add a sticky note and start typing",
	"  e                Add an emoji",
	"  i                Add an image and pick a file to upload",
	"  Enter            Edit the selected note, or pick a new image file",
	"  d/Delete         Delete the selection",
	"  X                Clear the whole board",
	"  c                Copy the selection to the clipboard",
	"  p                Paste nodes or text from the clipboard",
	"  ]                Bring to front",
	"  [                Send to back",
	"  1-5              Color: yellow, pink, green, blue, purple",
	"  </>              Smaller or larger text",
	"  a                Cycle text alignment",
	"",
	"Editing:",
	"--------",
	"  Type             Text goes straight onto the note",
	"  Enter            New line",
	"  Esc/Ctrl+S       Done (the whole edit is one undo step)",
	"",
	"View:",
	"-----",
	"  h/←/j/↓/k/↑/l/→  Pan the view",
	"  Shift+h/j/k/l    Pan 2x faster",
	"  Space            Toggle pan mode (left drag pans)",
	"  m                Toggle multi-select",
	"  +/-              Zoom in or out",
	"  f                Fit every node on screen",
	"  0                Reset zoom and position",
	"",
	"Projects and files:",
	"-------------------",
	"  o                Open the project list",
	"  n                New board",
	"  s                Export as PNG",
	"  S                Export as text",
	"",
	"General:",
	"--------",
	"  u/Ctrl+Z         Undo",
	"  U/Ctrl+Y         Redo",
	"  Esc              Clear selection or cancel a drag",
	"  ?                Toggle this help screen",
	"  q/Ctrl+C         Quit",
	"",
	"Every change is saved in the background.",
}

func (m Model) helpHeight() int {
	return max(1, m.height-1)
}

func (m Model) helpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		maxScroll := max(0, len(helpLines)-m.helpHeight())
		if m.helpScroll < maxScroll {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	default:
		m.mode = m.helpReturn
		m.helpScroll = 0
	}
	return m, nil
}

func (m Model) helpView() string {
	start := min(m.helpScroll, max(0, len(helpLines)-1))
	end := min(len(helpLines), start+m.helpHeight())

	var b strings.Builder
	for _, l := range helpLines[start:end] {
		b.WriteString(l)
		b.WriteString("\n")
	}
	for i := end - start; i < m.helpHeight(); i++ {
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(truncate("Mode: HELP | j/k=scroll | any other key to close", m.width)))
	return b.String()
}
