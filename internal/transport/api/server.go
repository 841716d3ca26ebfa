// Package api serves the project, plan and model-generation HTTP endpoints.
// The unversioned routes keep the paths and response shapes of the first
// public API; the /v1 routes are the same handlers under versioned paths.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"housegen.ai/internal/build"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/projectdb"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/tuning"
)

const maxBodyBytes = 64 * 1024

// Store is the subset of the project store the handlers need.
type Store interface {
	CreateProject(ctx context.Context, p projectdb.Project) (projectdb.Project, error)
	ListProjects(ctx context.Context) ([]projectdb.Project, error)
	GetProject(ctx context.Context, id int64) (projectdb.Project, error)
	ListBuilds(ctx context.Context, limit int) ([]projectdb.Build, error)
}

type Config struct {
	MediaDir    string
	Defaults    tuning.Defaults
	DefaultSeed int64
}

type Server struct {
	cfg     Config
	store   Store
	builder *build.Service
	planner *plan.Planner
	log     *log.Logger
}

func NewServer(cfg Config, store Store, builder *build.Service, planner *plan.Planner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Server{cfg: cfg, store: store, builder: builder, planner: planner, log: logger}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/projects/", s.handleProjectsLegacy)
	mux.HandleFunc("/projects/create/", s.handleCreateProject)
	mux.HandleFunc("/v1/projects", s.handleProjects)

	mux.HandleFunc("/generate/", s.handleGenerate)
	mux.HandleFunc("/v1/models/generate", s.handleGenerate)

	mux.HandleFunc("/v1/plan", s.handlePlan)
	mux.HandleFunc("/v1/builds", s.handleBuilds)

	if s.cfg.MediaDir != "" {
		mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.MediaDir))))
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *Server) handleProjectsLegacy(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/projects/" {
		writeError(rw, http.StatusNotFound, protocol.ErrNotFound, "not found", nil)
		return
	}
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.listProjects(rw, r)
}

func (s *Server) handleProjects(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProjects(rw, r)
	case http.MethodPost:
		s.createProject(rw, r)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateProject(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.createProject(rw, r)
}

func (s *Server) listProjects(rw http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.fail(rw, err)
		return
	}
	out := make([]protocol.Project, 0, len(rows))
	for _, p := range rows {
		out = append(out, projectJSON(p))
	}
	writeJSON(rw, http.StatusOK, out)
}

func (s *Server) createProject(rw http.ResponseWriter, r *http.Request) {
	raw, err := readBody(rw, r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error(), nil)
		return
	}
	if err := protocol.Validate(protocol.SchemaProjectCreate, raw); err != nil {
		s.fail(rw, err)
		return
	}
	var req protocol.ProjectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.fail(rw, protocol.DecodeError(err))
		return
	}
	if req.Budget < 0 {
		writeError(rw, http.StatusBadRequest, protocol.ErrInvalidBudget, "budget must not be negative",
			map[string]string{"budget": "must not be negative"})
		return
	}
	p, err := s.store.CreateProject(r.Context(), projectdb.Project{
		BudgetCents:  int64(req.Budget),
		LocationSize: req.LocationSize,
	})
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.log.Printf("project created id=%d budget=%s location_size=%g", p.ID, req.Budget, p.LocationSize)
	writeJSON(rw, http.StatusCreated, projectJSON(p))
}

func (s *Server) handleGenerate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	req, err := s.generateRequest(r)
	if err != nil {
		s.fail(rw, err)
		return
	}
	res, err := s.builder.Build(r.Context(), req)
	if err != nil {
		s.fail(rw, err)
		return
	}
	rooms := make([]plan.RoomType, 0, len(res.Scene.Rooms))
	for _, room := range res.Scene.Rooms {
		rooms = append(rooms, room.Type)
	}
	writeJSON(rw, http.StatusOK, protocol.GenerateResponse{
		ModelURL: res.ModelURL,
		BuildID:  res.Build.ID,
		Seed:     res.Build.Seed,
		Rooms:    rooms,
		Elements: len(res.Scene.Elements),
		Windows:  len(res.Scene.Windows),
		Overlaps: res.Overlaps,
	})
}

// generateRequest reads the query string. Missing parameters take the
// configured defaults. With project_id, budget and location_size come from
// the project and may not be given in the query.
func (s *Server) generateRequest(r *http.Request) (build.Request, error) {
	q := r.URL.Query()
	d := s.cfg.Defaults
	req := build.Request{
		Footprint:    plan.Footprint{Width: d.Width, Depth: d.Length, Height: d.Height},
		LocationSize: d.LocationSize,
	}
	budget, err := protocol.ParseCents(d.Budget)
	if err != nil {
		return req, err
	}
	req.Budget = budget

	if v := strings.TrimSpace(q.Get("project_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return req, badField("project_id", errors.New("must be a positive integer"))
		}
		for _, name := range []string{"budget", "location_size"} {
			if q.Has(name) {
				return req, badField(name, errors.New("taken from the project; omit it when project_id is set"))
			}
		}
		p, err := s.store.GetProject(r.Context(), id)
		if err != nil {
			return req, err
		}
		req.ProjectID = p.ID
		req.Budget = protocol.Cents(p.BudgetCents)
		req.LocationSize = p.LocationSize
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"width", &req.Footprint.Width},
		{"length", &req.Footprint.Depth},
		{"height", &req.Footprint.Height},
		{"location_size", &req.LocationSize},
	}
	for _, f := range floats {
		v := strings.TrimSpace(q.Get(f.name))
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, badField(f.name, errors.New("must be a number"))
		}
		*f.dst = x
	}
	if v := strings.TrimSpace(q.Get("budget")); v != "" {
		c, err := protocol.ParseCents(v)
		if err != nil {
			return req, badField("budget", err)
		}
		req.Budget = c
	}
	if v := strings.TrimSpace(q.Get("seed")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, badField("seed", errors.New("must be an integer"))
		}
		req.Seed = &seed
	}
	return req, nil
}

func (s *Server) handlePlan(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw, err := readBody(rw, r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error(), nil)
		return
	}
	req, err := DecodePlanRequest(raw)
	if err != nil {
		s.fail(rw, err)
		return
	}
	scene, err := PlanScene(s.planner, req, s.cfg.DefaultSeed)
	if err != nil {
		s.fail(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.PlanResponse{Scene: scene, Overlaps: scene.Overlaps()})
}

func (s *Server) handleBuilds(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			s.fail(rw, badField("limit", errors.New("must be between 1 and 500")))
			return
		}
		limit = n
	}
	rows, err := s.store.ListBuilds(r.Context(), limit)
	if err != nil {
		s.fail(rw, err)
		return
	}
	out := make([]protocol.Build, 0, len(rows))
	for _, b := range rows {
		out = append(out, buildJSON(b))
	}
	writeJSON(rw, http.StatusOK, out)
}

// DecodePlanRequest validates and decodes a PLAN body. It is shared with the
// websocket stream.
func DecodePlanRequest(raw []byte) (protocol.PlanRequest, error) {
	var req protocol.PlanRequest
	if err := protocol.Validate(protocol.SchemaPlan, raw); err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, protocol.DecodeError(err)
	}
	if req.ProtocolVersion != "" && req.ProtocolVersion != protocol.Version {
		return req, badField("protocol_version", errors.New("unsupported protocol version"))
	}
	return req, nil
}

// PlanScene plans a request without rendering it.
func PlanScene(p *plan.Planner, req protocol.PlanRequest, defaultSeed int64) (*plan.Scene, error) {
	seed := build.SeedFor(build.Request{
		Footprint:    req.Footprint(),
		LocationSize: req.LocationSize,
		Budget:       req.Budget,
		Seed:         req.Seed,
	}, defaultSeed)
	return p.Generate(req.Footprint(), req.Budget.Float(), seed)
}

func (s *Server) fail(rw http.ResponseWriter, err error) {
	code := protocol.CodeFor(err)
	status := http.StatusInternalServerError
	switch code {
	case protocol.ErrBadRequest, protocol.ErrInvalidDimensions, protocol.ErrInvalidBudget:
		status = http.StatusBadRequest
	case protocol.ErrNotFound:
		status = http.StatusNotFound
	}
	var fields map[string]string
	var se *protocol.SchemaError
	if errors.As(err, &se) {
		fields = se.Fields
	}
	msg := err.Error()
	switch code {
	case protocol.ErrRenderFailed:
		msg = "Model file was not generated"
		s.log.Printf("generate: %v", err)
	case protocol.ErrInternal:
		msg = "internal error"
		s.log.Printf("internal: %v", err)
	}
	writeError(rw, status, code, msg, fields)
}

func badField(field string, err error) error { return protocol.FieldError(field, err) }

func readBody(rw http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, msg string, fields map[string]string) {
	writeJSON(rw, status, protocol.ErrorResponse{Error: msg, Code: code, Fields: fields})
}

func projectJSON(p projectdb.Project) protocol.Project {
	return protocol.Project{
		ID:           p.ID,
		Budget:       protocol.Cents(p.BudgetCents),
		LocationSize: p.LocationSize,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func buildJSON(b projectdb.Build) protocol.Build {
	return protocol.Build{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		Width:        b.Width,
		Depth:        b.Depth,
		Height:       b.Height,
		LocationSize: b.LocationSize,
		Budget:       protocol.Cents(b.BudgetCents),
		Seed:         b.Seed,
		Rooms:        b.Rooms,
		Elements:     b.Elements,
		Windows:      b.Windows,
		Renderer:     b.Renderer,
		ModelPath:    b.ModelPath,
		ScenePath:    b.ScenePath,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
