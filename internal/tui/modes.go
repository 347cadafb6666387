package tui

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModeEditing
	ModeConfirm
	ModeProjects
	ModeInput
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeStartup:
		return "STARTUP"
	case ModeNormal:
		return "NORMAL"
	case ModeEditing:
		return "EDIT"
	case ModeConfirm:
		return "CONFIRM"
	case ModeProjects:
		return "PROJECTS"
	case ModeInput:
		return "INPUT"
	case ModeHelp:
		return "HELP"
	}
	return "UNKNOWN"
}

type ConfirmAction int

const (
	ConfirmDeleteNodes ConfirmAction = iota
	ConfirmClearBoard
	ConfirmDeleteProject
	ConfirmQuit
)

// InputPurpose says what the text typed in ModeInput is for.
type InputPurpose int

const (
	InputImagePath InputPurpose = iota
	InputExportPNG
	InputExportTXT
	InputNewProject
	InputRenameProject
)

func (p InputPurpose) prompt() string {
	switch p {
	case InputImagePath:
		return "Image file"
	case InputExportPNG:
		return "Export PNG to"
	case InputExportTXT:
		return "Export TXT to"
	case InputNewProject:
		return "New project name"
	case InputRenameProject:
		return "Rename project to"
	}
	return "Input"
}
