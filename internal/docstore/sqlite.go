package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"tornado/internal/canvas"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	nodes      TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore keeps every project as one row with its nodes as a JSON
// document.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, projectID string) ([]canvas.Node, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT nodes FROM projects WHERE id = ?`, projectID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", projectID, err)
	}
	var nodes []canvas.Node
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		return nil, fmt.Errorf("sqlite: decode %s: %w", projectID, err)
	}
	nodes, dropped := Sanitize(nodes)
	if dropped > 0 {
		s.logger.Warn("dropped invalid nodes", zap.String("project", projectID), zap.Int("count", dropped))
	}
	return nodes, nil
}

func (s *SQLiteStore) Save(ctx context.Context, projectID string, nodes []canvas.Node) error {
	if nodes == nil {
		nodes = []canvas.Node{}
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("sqlite: encode %s: %w", projectID, err)
	}
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, nodes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET nodes = excluded.nodes, updated_at = excluded.updated_at`,
		projectID, DefaultProjectName, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", projectID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.Name, &created, &updated); err != nil {
			return nil, fmt.Errorf("sqlite: list: %w", err)
		}
		p.CreatedAt = time.UnixMilli(created).UTC()
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, name string) (Project, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	p := Project{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, nodes, created_at, updated_at) VALUES (?, ?, '[]', ?, ?)`,
		p.ID, p.Name, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return Project{}, fmt.Errorf("sqlite: create: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Rename(ctx context.Context, projectID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		name, s.now().UnixMilli(), projectID)
	if err != nil {
		return fmt.Errorf("sqlite: rename %s: %w", projectID, err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", projectID, err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
