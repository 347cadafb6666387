// Package tui is the terminal front end: a bubbletea model that turns mouse
// and key input into board commands and draws the board with lipgloss.
package tui

import (
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/canvas"
	"tornado/internal/config"
	"tornado/internal/docstore"
	"tornado/internal/render"
)

// Deps are the collaborators the UI drives. Writer and Uploader may be nil
// in which case boards are not persisted and image import is unavailable.
type Deps struct {
	Store     docstore.Store
	Writer    *docstore.Writer
	Uploader  assets.Uploader
	Config    *config.Config
	Logger    *zap.Logger
	Clipboard Clipboard
}

// Options pick what the UI opens with.
type Options struct {
	// ProjectID opens that project directly, skipping the start screen.
	ProjectID string
}

// board is the open project. The session's saver reads it, so switching
// projects only has to update these fields.
type board struct {
	id, name string
}

type Model struct {
	store    docstore.Store
	writer   *docstore.Writer
	uploader assets.Uploader
	cfg      *config.Config
	logger   *zap.Logger
	clip     Clipboard

	session *canvas.Session
	board   *board
	layout  render.Layout

	width, height int
	mode          Mode
	helpReturn    Mode
	helpScroll    int

	confirm       ConfirmAction
	confirmTarget string
	confirmReturn Mode

	input       InputPurpose
	inputText   string
	inputTarget string
	inputReturn Mode

	editText []rune

	projects      []docstore.Project
	projectIndex  int
	projectReturn Mode

	// mouse is the last pointer position in screen pixels.
	mouse    canvas.Point
	hasMouse bool
	pressed  bool

	status   string
	errorMsg string
	quitting bool
}

func New(deps Deps, opts Options) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clip := deps.Clipboard
	if clip == nil {
		clip = SystemClipboard()
	}
	b := &board{}
	writer := deps.Writer
	save := func(nodes []canvas.Node) {
		if writer != nil && b.id != "" {
			writer.Save(b.id, nodes)
		}
	}
	layout := render.Layout{CellW: float64(cfg.UI.CellWidth), CellH: float64(cfg.UI.CellHeight)}
	if layout.CellW <= 0 || layout.CellH <= 0 {
		layout = render.DefaultLayout()
	}

	m := Model{
		store:    deps.Store,
		writer:   writer,
		uploader: deps.Uploader,
		cfg:      cfg,
		logger:   logger,
		clip:     clip,
		session:  canvas.NewSession(cfg.CanvasOptions(), save, logger),
		board:    b,
		layout:   layout,
		mode:     ModeStartup,
	}
	switch {
	case opts.ProjectID != "":
		b.id = opts.ProjectID
		m.mode = ModeNormal
	case !cfg.UI.StartMenu:
		m.newBoard()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.board.id != "" && m.store != nil {
		return m.loadProject(m.board.id, "")
	}
	return nil
}

// Session exposes the board engine, mainly for tests and the commands.
func (m Model) Session() *canvas.Session { return m.session }

func (m Model) Mode() Mode { return m.mode }

// ProjectID is the id of the open board, empty on the start screen.
func (m Model) ProjectID() string { return m.board.id }

func (m *Model) newBoard() {
	m.board.id = uuid.NewString()
	m.board.name = docstore.DefaultProjectName
	m.session.Load(nil)
	m.mode = ModeNormal
	m.errorMsg = ""
	m.status = ""
}

// canvasRows is the height of the board area. The last two rows hold the
// inspector and the status line.
func (m Model) canvasRows() int {
	return max(1, m.height-2)
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	pw, ph := m.layout.Size(w, m.canvasRows())
	m.session.SetViewportSize(pw, ph)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Cells map to different pixels after a resize.
		if m.session.CancelGesture() {
			m.pressed = false
		}
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.MouseMsg:
		if m.mode == ModeEditing && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.finishEdit()
		}
		if m.mode == ModeNormal {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case persistErrMsg:
		m.logger.Warn("save failed", zap.String("project", msg.projectID), zap.Error(msg.err))
		if msg.projectID == m.board.id {
			m.errorMsg = "save failed: " + msg.err.Error()
		}
		return m, nil

	case projectsMsg:
		if msg.err != nil {
			m.errorMsg = "list projects: " + msg.err.Error()
			return m, nil
		}
		m.projects = msg.projects
		if m.projectIndex >= len(m.projects) {
			m.projectIndex = max(0, len(m.projects)-1)
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.errorMsg = "open project: " + msg.err.Error()
			return m, nil
		}
		m.board.id, m.board.name = msg.id, msg.name
		m.session.Load(msg.nodes)
		m.mode = ModeNormal
		m.errorMsg = ""
		m.status = "Opened " + msg.name
		return m, nil

	case projectChangedMsg:
		switch {
		case msg.err != nil:
			m.errorMsg = msg.err.Error()
			return m, nil
		case msg.renamed != nil && msg.renamed.ID == m.board.id:
			m.board.name = msg.renamed.Name
		case msg.deleted != "" && msg.deleted == m.board.id:
			m.board.id, m.board.name = "", ""
			m.session.Load(nil)
			m.projectReturn = ModeStartup
		}
		return m, m.listProjects()

	case imageMsg:
		if msg.err != nil {
			m.errorMsg = "image upload failed: " + msg.err.Error()
			return m, nil
		}
		if !m.session.SetImage(msg.nodeID, msg.image.URL, msg.image.Width, msg.image.Height) {
			m.logger.Debug("image node gone before upload finished", zap.String("node", msg.nodeID))
			return m, nil
		}
		if _, ok := m.session.Editing(); m.mode == ModeEditing && !ok {
			m.finishEdit()
		}
		m.status = "Image uploaded"
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.errorMsg = "export: " + msg.err.Error()
			return m, nil
		}
		m.errorMsg = ""
		m.status = "Exported to " + msg.path
		return m, nil
	}
	return m, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
