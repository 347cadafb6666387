package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tornado/internal/canvas"
)

// RemoteStore talks to a tornado server over its JSON API.
type RemoteStore struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

var _ Store = (*RemoteStore)(nil)

func NewRemoteStore(baseURL string, client *http.Client, logger *zap.Logger) *RemoteStore {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteStore{base: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docstore: %s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
}

func (s *RemoteStore) Load(ctx context.Context, projectID string) ([]canvas.Node, error) {
	var nodes []canvas.Node
	if err := s.do(ctx, http.MethodGet, projectPath(projectID)+"/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	nodes, dropped := Sanitize(nodes)
	if dropped > 0 {
		s.logger.Warn("dropped invalid nodes", zap.String("project", projectID), zap.Int("count", dropped))
	}
	return nodes, nil
}

func (s *RemoteStore) Save(ctx context.Context, projectID string, nodes []canvas.Node) error {
	if nodes == nil {
		nodes = []canvas.Node{}
	}
	return s.do(ctx, http.MethodPut, projectPath(projectID)+"/nodes", nodes, nil)
}

func (s *RemoteStore) List(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := s.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *RemoteStore) Create(ctx context.Context, name string) (Project, error) {
	var p Project
	err := s.do(ctx, http.MethodPost, "/projects", ProjectRequest{Name: name}, &p)
	return p, err
}

func (s *RemoteStore) Rename(ctx context.Context, projectID, name string) error {
	return s.do(ctx, http.MethodPatch, projectPath(projectID), ProjectRequest{Name: name}, nil)
}

func (s *RemoteStore) Delete(ctx context.Context, projectID string) error {
	return s.do(ctx, http.MethodDelete, projectPath(projectID), nil, nil)
}

func (s *RemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func projectPath(id string) string {
	return "/projects/" + url.PathEscape(id)
}

func (s *RemoteStore) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("docstore: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return fmt.Errorf("docstore: %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("docstore: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("docstore: decode %s %s: %w", method, path, err)
	}
	return nil
}
