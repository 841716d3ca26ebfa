// Package build runs the synchronous plan -> archive -> render -> record
// pipeline behind the generate endpoints.
package build

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/buildlog"
	"housegen.ai/internal/persistence/projectdb"
	"housegen.ai/internal/persistence/scenefile"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/render"
)

type Request struct {
	ProjectID    int64
	Footprint    plan.Footprint
	LocationSize float64
	Budget       protocol.Cents
	// Seed pins the layout. Nil derives a seed from the other fields so the
	// same request always yields the same house.
	Seed *int64
}

type Result struct {
	Build    projectdb.Build
	Scene    *plan.Scene
	ModelURL string
	Overlaps []plan.Overlap
}

// Recorder persists build rows. *projectdb.Store satisfies it.
type Recorder interface {
	RecordBuild(ctx context.Context, b projectdb.Build) (projectdb.Build, error)
}

// EventLogger receives one event per build attempt. *buildlog.Writer
// satisfies it.
type EventLogger interface {
	Write(e buildlog.Event) error
}

type Config struct {
	// MediaDir receives model files; MediaURL is the public prefix they are
	// served under.
	MediaDir  string
	MediaURL  string
	SceneDir  string
	ModelName string

	DefaultSeed int64
}

type Stats struct {
	Builds         uint64
	Failures       uint64
	RenderFailures uint64
	Overlaps       uint64
	LastBuildMS    float64
}

type Service struct {
	cfg      Config
	planner  *plan.Planner
	renderer render.Renderer
	store    Recorder
	events   EventLogger
	logger   *log.Logger

	seq            atomic.Uint64
	builds         atomic.Uint64
	failures       atomic.Uint64
	renderFailures atomic.Uint64
	overlaps       atomic.Uint64
	lastBuildMicro atomic.Int64
}

func New(cfg Config, planner *plan.Planner, renderer render.Renderer, store Recorder, logger *log.Logger) *Service {
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media/"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "room_model.glb"
	}
	if cfg.SceneDir == "" {
		cfg.SceneDir = filepath.Join(cfg.MediaDir, "scenes")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[build] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Service{cfg: cfg, planner: planner, renderer: renderer, store: store, logger: logger}
}

func (s *Service) SetEventLogger(l EventLogger) { s.events = l }

func (s *Service) Renderer() string { return s.renderer.Name() }

func (s *Service) Stats() Stats {
	return Stats{
		Builds:         s.builds.Load(),
		Failures:       s.failures.Load(),
		RenderFailures: s.renderFailures.Load(),
		Overlaps:       s.overlaps.Load(),
		LastBuildMS:    float64(s.lastBuildMicro.Load()) / 1000,
	}
}

// Validate checks a request without planning it.
func Validate(req Request) error {
	if err := plan.Validate(req.Footprint, req.Budget.Float()); err != nil {
		return err
	}
	if math.IsNaN(req.LocationSize) || math.IsInf(req.LocationSize, 0) || req.LocationSize <= 0 {
		return fmt.Errorf("%w: location_size must be positive, got %v", plan.ErrInvalidDimensions, req.LocationSize)
	}
	return nil
}

// SeedFor returns the request's explicit seed or one derived from its fields.
func SeedFor(req Request, base int64) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	h := fnv.New64a()
	for _, v := range []float64{req.Footprint.Width, req.Footprint.Depth, req.Footprint.Height, req.LocationSize} {
		_, _ = h.Write([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte(req.Budget.String()))
	return base ^ int64(h.Sum64())
}

func (s *Service) Build(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := s.build(ctx, req)
	elapsed := time.Since(start)
	s.lastBuildMicro.Store(elapsed.Microseconds())
	s.logEvent(req, res, err, elapsed)
	if err != nil {
		s.failures.Add(1)
		return Result{}, err
	}
	s.builds.Add(1)
	return res, nil
}

func (s *Service) logEvent(req Request, res Result, err error, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	e := buildlog.Event{
		Status:     buildlog.StatusOK,
		ProjectID:  req.ProjectID,
		Seed:       SeedFor(req, s.cfg.DefaultSeed),
		Width:      req.Footprint.Width,
		Depth:      req.Footprint.Depth,
		Height:     req.Footprint.Height,
		Budget:     req.Budget.String(),
		Renderer:   s.renderer.Name(),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	}
	if err != nil {
		e.Status = buildlog.StatusFailed
		e.Error = err.Error()
	} else {
		e.BuildID = res.Build.ID
		e.Rooms = len(res.Scene.Rooms)
		e.Elements = len(res.Scene.Elements)
		e.Overlaps = len(res.Overlaps)
		e.Model = res.ModelURL
	}
	if werr := s.events.Write(e); werr != nil {
		s.logger.Printf("build log: %v", werr)
	}
}

func (s *Service) build(ctx context.Context, req Request) (Result, error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}
	seed := SeedFor(req, s.cfg.DefaultSeed)
	scene, err := s.planner.Generate(req.Footprint, req.Budget.Float(), seed)
	if err != nil {
		return Result{}, err
	}

	overlaps := scene.Overlaps()
	for _, o := range overlaps {
		s.logger.Printf("seed=%d rooms overlap: %s / %s", seed, o.A, o.B)
	}
	s.overlaps.Add(uint64(len(overlaps)))

	// Files are only kept for builds that end up recorded.
	stem := fmt.Sprintf("%d-%d", time.Now().UTC().UnixNano(), s.seq.Add(1))
	modelName := stem + "_" + s.cfg.ModelName
	modelPath := filepath.Join(s.cfg.MediaDir, modelName)
	job := render.Job{Scene: scene, LocationSize: req.LocationSize, OutPath: modelPath}
	if err := s.renderer.Render(ctx, job); err != nil {
		s.renderFailures.Add(1)
		s.logger.Printf("render %s failed: %v", s.renderer.Name(), err)
		s.removeFiles(modelPath)
		return Result{}, fmt.Errorf("%w: %w", render.ErrFailed, err)
	}

	scenePath := filepath.Join(s.cfg.SceneDir, stem+scenefile.Ext)
	if err := scenefile.Write(scenePath, scene); err != nil {
		s.removeFiles(modelPath, scenePath)
		return Result{}, fmt.Errorf("write scene: %w", err)
	}

	b := projectdb.Build{
		ProjectID:    req.ProjectID,
		Width:        req.Footprint.Width,
		Depth:        req.Footprint.Depth,
		Height:       req.Footprint.Height,
		LocationSize: req.LocationSize,
		BudgetCents:  int64(req.Budget),
		Seed:         seed,
		Rooms:        len(scene.Rooms),
		Elements:     len(scene.Elements),
		Windows:      len(scene.Windows),
		Renderer:     s.renderer.Name(),
		ModelPath:    modelPath,
		ScenePath:    scenePath,
		CreatedAt:    time.Now().UTC(),
	}
	if s.store != nil {
		if b, err = s.store.RecordBuild(ctx, b); err != nil {
			s.removeFiles(modelPath, scenePath)
			return Result{}, fmt.Errorf("record build: %w", err)
		}
	}

	s.logger.Printf("build id=%d seed=%d rooms=%d elements=%d renderer=%s model=%s", b.ID, seed, b.Rooms, b.Elements, b.Renderer, modelName)
	return Result{
		Build:    b,
		Scene:    scene,
		ModelURL: strings.TrimRight(s.cfg.MediaURL, "/") + "/" + modelName,
		Overlaps: overlaps,
	}, nil
}

func (s *Service) removeFiles(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Printf("cleanup %s: %v", p, err)
		}
	}
}
