package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"housegen.ai/internal/protocol"
)

// openReadOnly opens the project db without creating it.
func openReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", path)
}

func projectsCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("projects", stderr)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/projects.sqlite)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = defaultDBPath(*dataDir)
	}
	db, err := openReadOnly(path)
	if err != nil {
		fmt.Fprintln(stderr, "open:", err)
		return 1
	}
	defer db.Close()

	rows, err := db.QueryContext(context.Background(), `SELECT id,budget_cents,location_size,created_at FROM projects ORDER BY id`)
	if err != nil {
		fmt.Fprintln(stderr, "query:", err)
		return 1
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r     protocol.Project
			cents int64
		)
		if err := rows.Scan(&r.ID, &cents, &r.LocationSize, &r.CreatedAt); err != nil {
			fmt.Fprintln(stderr, "scan:", err)
			return 1
		}
		r.Budget = protocol.Cents(cents)
		printJSON(stdout, r)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(stderr, "rows:", err)
		return 1
	}
	return 0
}

func buildsCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("builds", stderr)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/projects.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	project := fs.Int64("project", 0, "project_id filter (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *limit <= 0 {
		*limit = 20
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = defaultDBPath(*dataDir)
	}
	db, err := openReadOnly(path)
	if err != nil {
		fmt.Fprintln(stderr, "open:", err)
		return 1
	}
	defer db.Close()

	q := `SELECT id,COALESCE(project_id,0),width,depth,height,location_size,budget_cents,seed,rooms,elements,windows,renderer,model_path,scene_path,created_at FROM builds`
	qargs := []any{}
	if *project > 0 {
		q += ` WHERE project_id=?`
		qargs = append(qargs, *project)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	qargs = append(qargs, *limit)

	rows, err := db.QueryContext(context.Background(), q, qargs...)
	if err != nil {
		fmt.Fprintln(stderr, "query:", err)
		return 1
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r     protocol.Build
			cents int64
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Width, &r.Depth, &r.Height, &r.LocationSize, &cents, &r.Seed, &r.Rooms, &r.Elements, &r.Windows, &r.Renderer, &r.ModelPath, &r.ScenePath, &r.CreatedAt); err != nil {
			fmt.Fprintln(stderr, "scan:", err)
			return 1
		}
		r.Budget = protocol.Cents(cents)
		printJSON(stdout, r)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(stderr, "rows:", err)
		return 1
	}
	return 0
}
