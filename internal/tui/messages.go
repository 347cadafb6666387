package tui

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/canvas"
	"tornado/internal/docstore"
	"tornado/internal/export"
)

type persistErrMsg struct {
	projectID string
	err       error
}

// PersistError builds the message the background writer sends when a save
// fails. The status line shows it; the board keeps its in-memory state.
func PersistError(projectID string, err error) tea.Msg {
	return persistErrMsg{projectID: projectID, err: err}
}

type projectsMsg struct {
	projects []docstore.Project
	err      error
}

type loadedMsg struct {
	id, name string
	nodes    []canvas.Node
	err      error
}

type projectChangedMsg struct {
	renamed *docstore.Project
	deleted string
	err     error
}

type imageMsg struct {
	nodeID string
	image  assets.Imported
	err    error
}

type exportedMsg struct {
	path string
	err  error
}

func (m Model) storeContext() (context.Context, context.CancelFunc) {
	timeout := 10 * time.Second
	if m.cfg != nil && m.cfg.Store.TimeoutSeconds > 0 {
		timeout = time.Duration(m.cfg.Store.TimeoutSeconds) * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (m Model) listProjects() tea.Cmd {
	store := m.store
	ctx, cancel := m.storeContext()
	return func() tea.Msg {
		defer cancel()
		ps, err := store.List(ctx)
		return projectsMsg{projects: ps, err: err}
	}
}

// loadProject fetches id. A project that does not exist yet opens as an
// empty board; the first save creates it.
func (m Model) loadProject(id, name string) tea.Cmd {
	store := m.store
	ctx, cancel := m.storeContext()
	return func() tea.Msg {
		defer cancel()
		nodes, err := store.Load(ctx, id)
		if errors.Is(err, docstore.ErrNotFound) {
			return loadedMsg{id: id, name: orDefault(name, docstore.DefaultProjectName)}
		}
		if err != nil {
			return loadedMsg{id: id, err: err}
		}
		if name == "" {
			if ps, err := store.List(ctx); err == nil {
				for _, p := range ps {
					if p.ID == id {
						name = p.Name
					}
				}
			}
		}
		return loadedMsg{id: id, name: orDefault(name, docstore.DefaultProjectName), nodes: nodes}
	}
}

func (m Model) createProject(name string) tea.Cmd {
	store := m.store
	ctx, cancel := m.storeContext()
	return func() tea.Msg {
		defer cancel()
		p, err := store.Create(ctx, name)
		if err != nil {
			return projectChangedMsg{err: err}
		}
		return loadedMsg{id: p.ID, name: p.Name}
	}
}

func (m Model) renameProject(id, name string) tea.Cmd {
	store := m.store
	ctx, cancel := m.storeContext()
	return func() tea.Msg {
		defer cancel()
		if err := store.Rename(ctx, id, name); err != nil {
			return projectChangedMsg{err: err}
		}
		return projectChangedMsg{renamed: &docstore.Project{ID: id, Name: name}}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	store := m.store
	ctx, cancel := m.storeContext()
	return func() tea.Msg {
		defer cancel()
		if err := store.Delete(ctx, id); err != nil {
			return projectChangedMsg{err: err}
		}
		return projectChangedMsg{deleted: id}
	}
}

func (m Model) importImage(nodeID, path string) tea.Cmd {
	up := m.uploader
	logger := m.logger
	opts := assets.Options{MaxSide: m.cfg.Assets.MaxSide, Quality: m.cfg.Assets.Quality}
	maxWidth := float64(m.cfg.Assets.MaxWidth)
	return func() tea.Msg {
		if up == nil {
			return imageMsg{nodeID: nodeID, err: errors.New("no asset store configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		img, err := assets.Import(ctx, up, expandHome(path), opts, maxWidth)
		if err != nil {
			logger.Warn("image import failed", zap.String("path", path), zap.Error(err))
		}
		return imageMsg{nodeID: nodeID, image: img, err: err}
	}
}

func (m Model) exportBoard(purpose InputPurpose, name string) tea.Cmd {
	nodes := m.session.Nodes()
	path := name
	if !filepath.IsAbs(path) && filepath.Base(path) == path {
		path = m.cfg.SavePath(name)
	}
	path = expandHome(path)
	return func() tea.Msg {
		var err error
		if purpose == InputExportPNG {
			err = export.PNG(nodes, path, export.PNGOptions{})
		} else {
			err = export.TextFile(path, nodes, export.TextOptions{})
		}
		return exportedMsg{path: path, err: err}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
