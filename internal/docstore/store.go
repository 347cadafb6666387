// Package docstore persists boards. Every backend keeps one document per
// project holding its node collection; the last write wins.
package docstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"tornado/internal/canvas"
)

var (
	ErrNotFound = errors.New("docstore: project not found")
	ErrClosed   = errors.New("docstore: store closed")
)

// DefaultProjectName is given to projects created implicitly by a save.
const DefaultProjectName = "Untitled"

// Project is a catalog entry. Nodes are loaded separately.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	// Load returns the nodes of projectID or ErrNotFound.
	Load(ctx context.Context, projectID string) ([]canvas.Node, error)
	// Save replaces the nodes of projectID, creating the project if needed.
	Save(ctx context.Context, projectID string, nodes []canvas.Node) error
	List(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, name string) (Project, error)
	Rename(ctx context.Context, projectID, name string) error
	Delete(ctx context.Context, projectID string) error
	Close() error
}

// ProjectRequest is the body of project create and rename calls.
type ProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// sortProjects orders projects oldest first, by id for equal times.
func sortProjects(ps []Project) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
