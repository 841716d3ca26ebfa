package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func main() {
	var (
		addr       = flag.String("addr", ":8000", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		catalogPth = flag.String("catalog", "", "path to furniture.yaml (default: <configs>/furniture.yaml if present)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		mediaDir   = flag.String("media", "", "generated model directory (default: <data>/media)")
		dbPath     = flag.String("db", "", "sqlite path (default: <data>/index/projects.sqlite)")
		renderer   = flag.String("renderer", "", "render backend override: glb|blender (or set HG_RENDERER)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg := appConfig{
		ConfigDir:     *configDir,
		TuningPath:    strings.TrimSpace(*tuningPath),
		CatalogPath:   strings.TrimSpace(*catalogPth),
		DataDir:       *dataDir,
		MediaDir:      strings.TrimSpace(*mediaDir),
		DBPath:        strings.TrimSpace(*dbPath),
		Renderer:      firstNonEmpty(*renderer, os.Getenv("HG_RENDERER")),
		BlenderBin:    strings.TrimSpace(os.Getenv("HG_BLENDER_BIN")),
		BlenderScript: strings.TrimSpace(os.Getenv("HG_BLENDER_SCRIPT")),
		BuildLog:      !envBool("HG_DISABLE_BUILD_LOG", false),
		AdminHTTP:     envBool("HG_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		PprofHTTP:     envBool("HG_ENABLE_PPROF_HTTP", false),
	}
	if cfg.TuningPath == "" {
		cfg.TuningPath = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s renderer=%s media=%s", *addr, a.builder.Renderer(), a.cfg.MediaDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
