package tui

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/canvas"
	"tornado/internal/config"
	"tornado/internal/docstore"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }
func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

type fixture struct {
	cfg   *config.Config
	clip  *fakeClipboard
	store *docstore.SQLiteStore
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := docstore.OpenSQLite(filepath.Join(dir, "boards.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Store.Dir = dir
	return &fixture{cfg: cfg, clip: &fakeClipboard{}, store: store, dir: dir}
}

func (f *fixture) model(deps Deps, opts Options) Model {
	deps.Config = f.cfg
	deps.Clipboard = f.clip
	if deps.Store == nil {
		deps.Store = f.store
	}
	m := New(deps, opts)
	m.resize(80, 24)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs through Update and returns the model and the last command.
func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = send(m, key(string(r)))
	}
	return m
}

func mouse(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func clickAt(x, y int, ctrl bool) []tea.Msg {
	down := mouse(tea.MouseActionPress, tea.MouseButtonLeft, x, y)
	down.Ctrl = ctrl
	up := mouse(tea.MouseActionRelease, tea.MouseButtonNone, x, y)
	up.Ctrl = ctrl
	return []tea.Msg{down, up}
}

func twoNotes() []canvas.Node {
	return []canvas.Node{
		{ID: "a", Type: canvas.TypeText, X: 0, Y: 0, Width: 220, Height: 150, ZIndex: 1, Content: "a", TextAlign: "left"},
		{ID: "b", Type: canvas.TypeText, X: 400, Y: 0, Width: 220, Height: 150, ZIndex: 2, Content: "b", TextAlign: "left"},
	}
}

func boardModel(t *testing.T) (*fixture, Model) {
	f := newFixture(t)
	m := f.model(Deps{}, Options{})
	m, _ = send(m, key("n"))
	require.Equal(t, ModeNormal, m.Mode())
	m.Session().Load(twoNotes())
	return f, m
}

func TestStartupScreen(t *testing.T) {
	f := newFixture(t)
	m := f.model(Deps{}, Options{})
	assert.Equal(t, ModeStartup, m.Mode())
	assert.Contains(t, m.View(), "'n' for a new board")

	m, _ = send(m, key("n"))
	assert.Equal(t, ModeNormal, m.Mode())
	assert.NotEmpty(t, m.ProjectID())

	f.cfg.UI.StartMenu = false
	m = f.model(Deps{}, Options{})
	assert.Equal(t, ModeNormal, m.Mode())
}

func TestMouseDragMovesNode(t *testing.T) {
	_, m := boardModel(t)

	// Cell (2,1) is pixel (20,24); cell (12,1) is 80 pixels to the right.
	m, _ = send(m,
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2, 1),
		mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 12, 1),
		mouse(tea.MouseActionRelease, tea.MouseButtonNone, 12, 1),
	)
	n, ok := m.Session().Node("a")
	require.True(t, ok)
	assert.Equal(t, 80.0, n.X)
	assert.Equal(t, 0.0, n.Y)
	assert.True(t, m.Session().CanUndo())
}

func TestMouseClickSelection(t *testing.T) {
	_, m := boardModel(t)

	m, _ = send(m, clickAt(2, 1, false)...)
	assert.Equal(t, []string{"a"}, m.Session().Selected())

	// Pixel (420,24) is inside b.
	m, _ = send(m, clickAt(52, 1, true)...)
	assert.ElementsMatch(t, []string{"a", "b"}, m.Session().Selected())
	assert.Contains(t, m.View(), "2 selected")

	m, _ = send(m, clickAt(40, 15, false)...)
	assert.Empty(t, m.Session().Selected())
}

func TestMouseOutsideCanvasIgnored(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, clickAt(2, 1, false)...)

	// The last two rows are the inspector and status line.
	m, _ = send(m, clickAt(2, 23, false)...)
	assert.Equal(t, []string{"a"}, m.Session().Selected())
}

func TestMouseWheelZooms(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 10, 5))
	assert.Greater(t, m.Session().Viewport().Scale, 1.0)

	m, _ = send(m, mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 10, 5), mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 10, 5))
	assert.Less(t, m.Session().Viewport().Scale, 1.0)
}

func TestAddEditAndUndo(t *testing.T) {
	_, m := boardModel(t)
	m.Session().Load(nil)

	m, _ = send(m, key("t"))
	require.Equal(t, ModeEditing, m.Mode())
	m = typeText(m, "hi")
	m, _ = send(m, key("enter"))
	m = typeText(m, "yo")
	m, _ = send(m, key("backspace"))
	assert.Contains(t, m.View(), "Mode: EDIT")

	m, _ = send(m, key("esc"))
	assert.Equal(t, ModeNormal, m.Mode())
	nodes := m.Session().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "hi\ny", nodes[0].Content)

	m, _ = send(m, key("u"))
	nodes = m.Session().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "", nodes[0].Content)

	m, _ = send(m, key("ctrl+z"))
	assert.Empty(t, m.Session().Nodes())

	m, _ = send(m, key("ctrl+y"), key("U"))
	nodes = m.Session().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "hi\ny", nodes[0].Content)
}

func TestPropertyKeys(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, clickAt(2, 1, false)...)

	m, _ = send(m, key("2"), key("a"), key(">"), key("]"))
	n, _ := m.Session().Node("a")
	assert.Equal(t, "pink", n.Color)
	assert.Equal(t, "center", n.TextAlign)
	assert.Greater(t, n.FontScale, 1.0)
	assert.Equal(t, 3, n.ZIndex)
	assert.Contains(t, m.View(), "color pink")
}

func TestDeleteAsksFirst(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, clickAt(2, 1, false)...)

	m, _ = send(m, key("d"))
	require.Equal(t, ModeConfirm, m.Mode())
	assert.Contains(t, m.View(), "Delete this node?")
	m, _ = send(m, key("n"))
	assert.Len(t, m.Session().Nodes(), 2)

	m, _ = send(m, key("delete"), key("y"))
	assert.Equal(t, ModeNormal, m.Mode())
	_, ok := m.Session().Node("a")
	assert.False(t, ok)
	assert.Empty(t, m.Session().Selected())
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	f, m := boardModel(t)
	f.cfg.UI.Confirmations = false
	m, _ = send(m, clickAt(2, 1, false)...)
	m, _ = send(m, key("backspace"))
	assert.Len(t, m.Session().Nodes(), 1)
}

func TestQuitConfirm(t *testing.T) {
	_, m := boardModel(t)
	m, cmd := send(m, key("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeConfirm, m.Mode())
	_, cmd = send(m, key("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPanAndModes(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, key("l"))
	assert.Equal(t, -32.0, m.Session().Viewport().OffsetX)
	m, _ = send(m, key("J"))
	assert.Equal(t, -128.0, m.Session().Viewport().OffsetY)

	m, _ = send(m, key("m"), key(" "))
	assert.True(t, m.Session().MultiSelect())
	assert.True(t, m.Session().PanMode())
	view := m.View()
	assert.Contains(t, view, "MULTI")
	assert.Contains(t, view, "PAN")

	m, _ = send(m, key("0"), key("+"))
	assert.Contains(t, m.View(), "Zoom: 110%")
}

func TestCopyPaste(t *testing.T) {
	f, m := boardModel(t)
	m, _ = send(m, clickAt(2, 1, false)...)

	m, _ = send(m, key("c"))
	assert.Contains(t, f.clip.text, `"tornado":1`)

	m, _ = send(m, key("p"))
	assert.Len(t, m.Session().Nodes(), 3)
	sel := m.Session().Selected()
	require.Len(t, sel, 1)
	pasted, _ := m.Session().Node(sel[0])
	assert.Equal(t, "a", pasted.Content)
	assert.NotEqual(t, "a", pasted.ID)

	f.clip.text = `{\rtf1\ansi hello\par world}`
	m, _ = send(m, key("p"))
	sel = m.Session().Selected()
	require.Len(t, sel, 1)
	note, _ := m.Session().Node(sel[0])
	assert.Equal(t, "hello\nworld", note.Content)

	f.clip.err = errors.New("no clipboard")
	m, _ = send(m, key("p"))
	assert.Contains(t, m.View(), "ERROR: paste: no clipboard")
}

func TestPersistErrorShowsInStatus(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, PersistError(m.ProjectID(), errors.New("disk full")))
	assert.Contains(t, m.View(), "save failed: disk full")

	m, _ = send(m, key("esc"))
	assert.NotContains(t, m.View(), "disk full")

	m, _ = send(m, PersistError("other", errors.New("nope")))
	assert.NotContains(t, m.View(), "nope")
}

func TestEditsAreSaved(t *testing.T) {
	f := newFixture(t)
	writer := docstore.NewWriter(f.store)
	t.Cleanup(func() { writer.Close() })

	m := f.model(Deps{Writer: writer}, Options{})
	m, _ = send(m, key("n"), key("t"))
	m = typeText(m, "saved")
	m, _ = send(m, key("esc"))

	ctx := context.Background()
	require.NoError(t, writer.Flush(ctx))
	nodes, err := f.store.Load(ctx, m.ProjectID())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "saved", nodes[0].Content)
}

func TestOpenProjectFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.store.Create(ctx, "Roadmap")
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, p.ID, twoNotes()))

	m := f.model(Deps{}, Options{ProjectID: p.ID})
	cmd := m.Init()
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Len(t, m.Session().Nodes(), 2)
	assert.Contains(t, m.View(), "Roadmap")

	// An id nobody saved yet opens empty.
	m = f.model(Deps{}, Options{ProjectID: "fresh"})
	m, _ = send(m, m.Init()())
	assert.Empty(t, m.Session().Nodes())
	assert.Equal(t, "fresh", m.ProjectID())
}

// selectProject moves the picker cursor onto id.
func selectProject(t *testing.T, m Model, id string) Model {
	t.Helper()
	for i, p := range m.projects {
		if p.ID == id {
			m.projectIndex = i
			return m
		}
	}
	t.Fatalf("project %s not listed", id)
	return m
}

func TestProjectPicker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Create(ctx, "First")
	require.NoError(t, err)
	second, err := f.store.Create(ctx, "Second")
	require.NoError(t, err)

	m := f.model(Deps{}, Options{})
	m, cmd := send(m, key("o"))
	require.Equal(t, ModeProjects, m.Mode())
	m, _ = send(m, cmd())
	require.Len(t, m.projects, 2)
	view := m.View()
	assert.Contains(t, view, "> "+m.projects[0].Name+" <")
	assert.Contains(t, view, "First")
	assert.Contains(t, view, "Second")

	m = selectProject(t, m, second.ID)
	m, _ = send(m, key("r"))
	require.Equal(t, ModeInput, m.Mode())
	assert.Equal(t, "Second", m.inputText)
	for range "Second" {
		m, _ = send(m, key("backspace"))
	}
	m = typeText(m, "Later")
	m, cmd = send(m, key("enter"))
	require.NotNil(t, cmd)
	m, cmd = send(m, cmd())
	m, _ = send(m, cmd())
	assert.Equal(t, ModeProjects, m.Mode())
	assert.Contains(t, m.View(), "> Later <")

	m, cmd = send(m, key("enter"))
	m, _ = send(m, cmd())
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Equal(t, second.ID, m.ProjectID())

	m, cmd = send(m, key("o"))
	m, _ = send(m, cmd())
	m = selectProject(t, m, second.ID)
	m, _ = send(m, key("d"))
	require.Equal(t, ModeConfirm, m.Mode())
	assert.Contains(t, m.View(), "Delete this project?")
	m, cmd = send(m, key("y"))
	m, cmd = send(m, cmd())
	m, _ = send(m, cmd())
	assert.Len(t, m.projects, 1)
	assert.NotContains(t, m.View(), "Later")

	// The open board was deleted, so backing out lands on the start screen.
	m, _ = send(m, key("esc"))
	assert.Equal(t, ModeStartup, m.Mode())
}

func TestImageImport(t *testing.T) {
	f, m := boardModel(t)
	up := assets.NewLocalUploader(filepath.Join(f.dir, "assets"), "")
	m.uploader = up

	src := filepath.Join(f.dir, "wide.png")
	file, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, 600, 300))))
	require.NoError(t, file.Close())

	m, _ = send(m, key("i"))
	require.Equal(t, ModeInput, m.Mode())
	id := m.Session().Selected()[0]
	m = typeText(m, src)
	m, cmd := send(m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())

	n, ok := m.Session().Node(id)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(n.ImageURL, "file://"))
	assert.Equal(t, 300.0, n.Width)
	assert.Equal(t, 150.0, n.Height)

	// A failed upload keeps the placeholder.
	m, _ = send(m, key("i"))
	id = m.Session().Selected()[0]
	m = typeText(m, filepath.Join(f.dir, "missing.png"))
	m, cmd = send(m, key("enter"))
	m, _ = send(m, cmd())
	n, ok = m.Session().Node(id)
	require.True(t, ok)
	assert.Empty(t, n.ImageURL)
	assert.Contains(t, m.View(), "image upload failed")
}

func TestExportKeys(t *testing.T) {
	f, m := boardModel(t)

	m, _ = send(m, key("s"))
	require.Equal(t, ModeInput, m.Mode())
	assert.Equal(t, "Untitled.png", m.inputText)
	m, cmd := send(m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())
	assert.FileExists(t, filepath.Join(f.dir, "Untitled.png"))
	assert.Contains(t, m.View(), "Exported to")

	m, _ = send(m, key("S"))
	m, cmd = send(m, key("enter"))
	m, _ = send(m, cmd())
	data, err := os.ReadFile(filepath.Join(f.dir, "Untitled.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "+---")
}

func TestHelpScrolls(t *testing.T) {
	_, m := boardModel(t)
	m, _ = send(m, key("?"))
	require.Equal(t, ModeHelp, m.Mode())
	assert.Contains(t, m.View(), "Tornado Help")

	m, _ = send(m, key("j"))
	assert.Equal(t, 1, m.helpScroll)
	assert.NotContains(t, m.View(), "Tornado Help")

	m, _ = send(m, key("x"))
	assert.Equal(t, ModeNormal, m.Mode())
}

func TestProjectNameTooLong(t *testing.T) {
	f := newFixture(t)
	m := f.model(Deps{}, Options{})
	m, cmd := send(m, key("o"))
	m, _ = send(m, cmd())
	m, _ = send(m, key("n"))
	require.Equal(t, ModeInput, m.Mode())

	m = typeText(m, strings.Repeat("x", 201))
	m, cmd = send(m, key("enter"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeProjects, m.Mode())
	assert.Contains(t, m.View(), "name must be at most 200 characters")

	ps, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestImageArrivesWhileTyping(t *testing.T) {
	_, m := boardModel(t)
	img := canvas.Node{ID: "img", Type: canvas.TypeImage, X: 0, Y: 300, Width: 300, Height: 200, ZIndex: 3}
	m.Session().Load(append(twoNotes(), img))

	m, _ = send(m, key("t"))
	require.Equal(t, ModeEditing, m.Mode())
	id, _ := m.Session().Editing()
	m = typeText(m, "ab")

	m, _ = send(m, imageMsg{nodeID: "img", image: assets.Imported{URL: "file:///tmp/cat.jpg", Width: 300, Height: 150}})
	assert.Equal(t, ModeEditing, m.Mode())
	m = typeText(m, "cd")

	assert.Equal(t, ModeEditing, m.Mode())
	n, ok := m.Session().Node(id)
	require.True(t, ok)
	assert.Equal(t, "abcd", n.Content)
	im, _ := m.Session().Node("img")
	assert.Equal(t, "file:///tmp/cat.jpg", im.ImageURL)
}

func TestResizeCancelsDrag(t *testing.T) {
	_, m := boardModel(t)

	m, _ = send(m,
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2, 1),
		mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 12, 1),
		tea.WindowSizeMsg{Width: 100, Height: 30},
		mouse(tea.MouseActionRelease, tea.MouseButtonNone, 12, 1),
	)
	n, ok := m.Session().Node("a")
	require.True(t, ok)
	assert.Equal(t, 0.0, n.X)
	assert.False(t, m.Session().CanUndo())
}
