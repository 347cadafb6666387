package docstore

import (
	"context"
	"sync"
	"time"

	"tornado/internal/canvas"
	"tornado/internal/config"
)

// memStore is an in-memory Store that can be told to fail or stall.
type memStore struct {
	mu       sync.Mutex
	boards   map[string][]canvas.Node
	saves    int
	failWith error
	gate     chan struct{}
}

func newMemStore() *memStore {
	return &memStore{boards: map[string][]canvas.Node{}}
}

func (m *memStore) Load(ctx context.Context, id string) ([]canvas.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	nodes, ok := m.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return canvas.Clone(nodes), nil
}

func (m *memStore) Save(ctx context.Context, id string, nodes []canvas.Node) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failWith != nil {
		return m.failWith
	}
	m.boards[id] = canvas.Clone(nodes)
	return nil
}

func (m *memStore) List(ctx context.Context) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []Project{}
	for id := range m.boards {
		out = append(out, Project{ID: id, Name: id, CreatedAt: time.Unix(0, 0)})
	}
	sortProjects(out)
	return out, nil
}

func (m *memStore) Create(ctx context.Context, name string) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[name] = []canvas.Node{}
	return Project{ID: name, Name: name}, nil
}

func (m *memStore) Rename(ctx context.Context, id, name string) error { return nil }

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return ErrNotFound
	}
	delete(m.boards, id)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) board(id string) []canvas.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boards[id]
}

func configFor(backend, path string) config.StoreConfig {
	return config.StoreConfig{Backend: backend, Path: path, Breaker: true}
}
