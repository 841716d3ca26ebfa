package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"housegen.ai/internal/build"
	"housegen.ai/internal/layout/catalog"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/buildlog"
	"housegen.ai/internal/persistence/projectdb"
	"housegen.ai/internal/render"
	"housegen.ai/internal/render/blender"
	"housegen.ai/internal/render/glb"
	"housegen.ai/internal/transport/api"
	"housegen.ai/internal/transport/ws"
	"housegen.ai/internal/tuning"
)

type appConfig struct {
	ConfigDir   string
	TuningPath  string
	CatalogPath string
	DataDir     string
	MediaDir    string
	DBPath      string

	Renderer      string
	BlenderBin    string
	BlenderScript string

	BuildLog  bool
	AdminHTTP bool
	PprofHTTP bool
}

type app struct {
	cfg    appConfig
	logger *log.Logger

	tune    tuning.Tuning
	catalog *catalog.Catalog
	store   *projectdb.Store
	events  *buildlog.Writer
	planner *plan.Planner
	builder *build.Service

	closeOnce sync.Once
}

func newApp(cfg appConfig, logger *log.Logger) (*app, error) {
	tune, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", cfg.TuningPath)
		tune = tuning.Default()
	}
	if cfg.Renderer != "" {
		tune.Render.Backend = strings.ToLower(cfg.Renderer)
	}
	if cfg.BlenderBin != "" {
		tune.Render.BlenderBin = cfg.BlenderBin
	}
	if cfg.BlenderScript != "" {
		tune.Render.BlenderScript = cfg.BlenderScript
	}
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}

	cat, err := loadCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MediaDir == "" {
		cfg.MediaDir = filepath.Join(cfg.DataDir, "media")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "index", "projects.sqlite")
	}
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, err
	}

	store, err := projectdb.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open project db: %w", err)
	}

	var r render.Renderer
	switch tune.Render.Backend {
	case render.BackendBlender:
		r = blender.New(blender.Config{
			Bin:    tune.Render.BlenderBin,
			Script: tune.Render.BlenderScript,
			Logger: log.New(os.Stdout, "[blender] ", log.LstdFlags|log.Lmicroseconds),
		})
	default:
		r = glb.New()
	}

	planner := plan.New(tune.PlanOptions(), cat)
	builder := build.New(build.Config{
		MediaDir:    cfg.MediaDir,
		MediaURL:    "/media/",
		SceneDir:    filepath.Join(cfg.DataDir, "scenes"),
		ModelName:   tune.Render.ModelName,
		DefaultSeed: tune.DefaultSeed,
	}, planner, r, store, log.New(os.Stdout, "[build] ", log.LstdFlags|log.Lmicroseconds))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		tune:    tune,
		catalog: cat,
		store:   store,
		planner: planner,
		builder: builder,
	}
	if cfg.BuildLog {
		a.events = buildlog.NewWriter(filepath.Join(cfg.DataDir, "logs"))
		builder.SetEventLogger(a.events)
	}
	logger.Printf("catalog digest=%s rooms=%d renderer=%s", cat.Digest, len(cat.Rooms()), r.Name())
	return a, nil
}

func loadCatalog(cfg appConfig, logger *log.Logger) (*catalog.Catalog, error) {
	path := cfg.CatalogPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.ConfigDir, "furniture.yaml")
	}
	cat, err := catalog.Load(path)
	if err == nil {
		return cat, nil
	}
	if os.IsNotExist(err) && !explicit {
		logger.Printf("furniture catalog not found (%s); using built-in table", path)
		return catalog.Default(), nil
	}
	return nil, fmt.Errorf("load catalog: %w", err)
}

func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.events != nil {
			if err := a.events.Close(); err != nil {
				a.logger.Printf("close build log: %v", err)
			}
		}
		if err := a.store.Close(); err != nil {
			a.logger.Printf("close project db: %v", err)
		}
	})
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.handleMetrics)

	apiSrv := api.NewServer(api.Config{
		MediaDir:    a.cfg.MediaDir,
		Defaults:    a.tune.Defaults,
		DefaultSeed: a.tune.DefaultSeed,
	}, a.store, a.builder, a.planner, log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmicroseconds))
	apiSrv.Register(mux)
	mux.HandleFunc("/v1/plan/ws", ws.NewServer(a.planner, a.tune.DefaultSeed, a.logger).Handler())

	if a.cfg.AdminHTTP {
		// Local-only.
		mux.HandleFunc("/admin/v1/state", a.handleAdminState)
	} else {
		a.logger.Printf("admin endpoints disabled (HG_ENABLE_ADMIN_HTTP=false)")
	}
	if a.cfg.PprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func (a *app) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	st := a.builder.Stats()
	backend := a.builder.Renderer()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP housegen_builds_total Successful builds.\n")
	fmt.Fprintf(rw, "# TYPE housegen_builds_total counter\n")
	fmt.Fprintf(rw, "housegen_builds_total{renderer=%q} %d\n", backend, st.Builds)

	fmt.Fprintf(rw, "# HELP housegen_build_failures_total Failed builds, including validation errors.\n")
	fmt.Fprintf(rw, "# TYPE housegen_build_failures_total counter\n")
	fmt.Fprintf(rw, "housegen_build_failures_total{renderer=%q,stage=%q} %d\n", backend, "any", st.Failures)
	fmt.Fprintf(rw, "housegen_build_failures_total{renderer=%q,stage=%q} %d\n", backend, "render", st.RenderFailures)

	fmt.Fprintf(rw, "# HELP housegen_room_overlaps_total Overlapping room pairs seen in built scenes.\n")
	fmt.Fprintf(rw, "# TYPE housegen_room_overlaps_total counter\n")
	fmt.Fprintf(rw, "housegen_room_overlaps_total %d\n", st.Overlaps)

	fmt.Fprintf(rw, "# HELP housegen_last_build_ms Duration of the last build in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE housegen_last_build_ms gauge\n")
	fmt.Fprintf(rw, "housegen_last_build_ms{renderer=%q} %.3f\n", backend, st.LastBuildMS)
}

func (a *app) handleAdminState(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	resp := struct {
		Renderer      string        `json:"renderer"`
		Stats         build.Stats   `json:"stats"`
		CatalogDigest string        `json:"catalog_digest"`
		CatalogRooms  []string      `json:"catalog_rooms"`
		Tuning        tuning.Tuning `json:"tuning"`
		MediaDir      string        `json:"media_dir"`
		DBPath        string        `json:"db_path"`
	}{
		Renderer:      a.builder.Renderer(),
		Stats:         a.builder.Stats(),
		CatalogDigest: a.catalog.Digest,
		CatalogRooms:  a.catalog.Rooms(),
		Tuning:        a.tune,
		MediaDir:      a.cfg.MediaDir,
		DBPath:        a.cfg.DBPath,
	}
	_ = json.NewEncoder(rw).Encode(resp)
}
