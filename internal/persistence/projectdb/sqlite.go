package projectdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type Project struct {
	ID           int64
	BudgetCents  int64
	LocationSize float64
	CreatedAt    time.Time
}

type Build struct {
	ID           int64
	ProjectID    int64 // 0 when the build was not tied to a project
	Width        float64
	Depth        float64
	Height       float64
	LocationSize float64
	BudgetCents  int64
	Seed         int64
	Rooms        int
	Elements     int
	Windows      int
	Renderer     string
	ModelPath    string
	ScenePath    string
	CreatedAt    time.Time
}

// Store is the sqlite-backed project/build store.
type Store struct {
	db *sql.DB

	insertProject *sql.Stmt
	insertBuild   *sql.Stmt
}

func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if s.insertProject, err = db.Prepare(`INSERT INTO projects(budget_cents,location_size,created_at) VALUES(?,?,?)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if s.insertBuild, err = db.Prepare(`INSERT INTO builds(project_id,width,depth,height,location_size,budget_cents,seed,rooms,elements,windows,renderer,model_path,scene_path,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`); err != nil {
		_ = s.insertProject.Close()
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			budget_cents INTEGER NOT NULL,
			location_size REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER REFERENCES projects(id),
			width REAL NOT NULL,
			depth REAL NOT NULL,
			height REAL NOT NULL,
			location_size REAL NOT NULL,
			budget_cents INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			rooms INTEGER NOT NULL,
			elements INTEGER NOT NULL,
			windows INTEGER NOT NULL,
			renderer TEXT NOT NULL,
			model_path TEXT NOT NULL,
			scene_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_project ON builds(project_id, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	_ = s.insertProject.Close()
	_ = s.insertBuild.Close()
	return s.db.Close()
}

func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.insertProject.ExecContext(ctx, p.BudgetCents, p.LocationSize, formatTime(p.CreatedAt))
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// ListProjects returns every project in insertion order.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,budget_cents,location_size,created_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,budget_cents,location_size,created_at FROM projects WHERE id=?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *Store) RecordBuild(ctx context.Context, b Build) (Build, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	var projectID any
	if b.ProjectID > 0 {
		projectID = b.ProjectID
	}
	res, err := s.insertBuild.ExecContext(ctx,
		projectID,
		b.Width, b.Depth, b.Height,
		b.LocationSize,
		b.BudgetCents,
		b.Seed,
		b.Rooms, b.Elements, b.Windows,
		b.Renderer,
		b.ModelPath,
		b.ScenePath,
		formatTime(b.CreatedAt),
	)
	if err != nil {
		return Build{}, fmt.Errorf("insert build: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return Build{}, err
	}
	return b, nil
}

// ListBuilds returns the most recent builds first.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,COALESCE(project_id,0),width,depth,height,location_size,budget_cents,seed,rooms,elements,windows,renderer,model_path,scene_path,created_at FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Build{}
	for rows.Next() {
		var (
			b  Build
			ts string
		)
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Width, &b.Depth, &b.Height, &b.LocationSize, &b.BudgetCents, &b.Seed, &b.Rooms, &b.Elements, &b.Windows, &b.Renderer, &b.ModelPath, &b.ScenePath, &ts); err != nil {
			return nil, err
		}
		b.CreatedAt = parseTime(ts)
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(r scanner) (Project, error) {
	var (
		p  Project
		ts string
	)
	if err := r.Scan(&p.ID, &p.BudgetCents, &p.LocationSize, &ts); err != nil {
		return Project{}, err
	}
	p.CreatedAt = parseTime(ts)
	return p, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
