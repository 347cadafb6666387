package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) openProjects() (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.errorMsg = "no document store configured"
		return m, nil
	}
	m.projectReturn = m.mode
	m.mode = ModeProjects
	m.projectIndex = 0
	m.errorMsg = ""
	return m, m.listProjects()
}

func (m Model) projectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.projectIndex < len(m.projects)-1 {
			m.projectIndex++
		}
	case "k", "up":
		if m.projectIndex > 0 {
			m.projectIndex--
		}
	case "enter":
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.projectIndex]
		return m, m.loadProject(p.ID, p.Name)
	case "n":
		m.startInput(InputNewProject, "", "")
	case "r":
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.projectIndex]
		m.startInput(InputRenameProject, p.ID, p.Name)
	case "d":
		if len(m.projects) == 0 {
			return m, nil
		}
		m.askConfirm(ConfirmDeleteProject, m.projects[m.projectIndex].ID)
	case "esc", "q":
		m.mode = m.projectReturn
		if m.mode == ModeNormal && m.board.id == "" {
			m.mode = ModeStartup
		}
	}
	return m, nil
}

func (m Model) projectsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")
	rows := 2
	if len(m.projects) == 0 {
		b.WriteString("  (no projects yet, press n to create one)\n")
		rows++
	}
	for i, p := range m.projects {
		line := "  " + p.Name
		if i == m.projectIndex {
			line = "> " + p.Name + " <"
		}
		if p.ID == m.board.id {
			line += "  (open)"
		}
		b.WriteString(truncate(line+"  "+p.UpdatedAt.Local().Format("2006-01-02 15:04"), m.width))
		b.WriteString("\n")
		rows++
	}
	for ; rows < m.height-1; rows++ {
		b.WriteString("\n")
	}
	if m.mode != ModeProjects {
		b.WriteString(m.statusView())
		return b.String()
	}
	if m.errorMsg != "" {
		b.WriteString(errorStyle.Render(truncate("ERROR: "+m.errorMsg, m.width)))
		return b.String()
	}
	b.WriteString(statusStyle.Render(truncate("Mode: PROJECTS | ↑/↓=navigate, Enter=open, n=new, r=rename, d=delete, Esc=back", m.width)))
	return b.String()
}
