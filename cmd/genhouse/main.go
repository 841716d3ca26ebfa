// Command genhouse plans one house and writes it as GLB or scene JSON.
//
//	genhouse [flags] -- width depth height location_size budget output_path
//
// The positional arguments follow the host renderer's script contract, so
// genhouse can stand in for it in existing pipelines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"housegen.ai/internal/build"
	"housegen.ai/internal/layout/catalog"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/scenefile"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/render"
	"housegen.ai/internal/render/glb"
	"housegen.ai/internal/tuning"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("genhouse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "glb", "output format: glb|json")
	seedFlag := fs.String("seed", "", "layout seed (default: derived from the arguments)")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (optional)")
	catalogPath := fs.String("catalog", "", "path to furniture.yaml (optional)")
	scenePath := fs.String("scene", "", "also write a scene archive to this path (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	logger := log.New(stderr, "[genhouse] ", 0)

	pos := fs.Args()
	if len(pos) != 6 {
		fmt.Fprintln(stderr, "usage: genhouse [flags] -- width depth height location_size budget output_path")
		return 2
	}
	var dims [4]float64
	names := [4]string{"width", "depth", "height", "location_size"}
	for i := range dims {
		v, err := strconv.ParseFloat(strings.TrimSpace(pos[i]), 64)
		if err != nil {
			fmt.Fprintf(stderr, "bad %s %q: %v\n", names[i], pos[i], err)
			return 2
		}
		dims[i] = v
	}
	budget, err := protocol.ParseCents(pos[4])
	if err != nil {
		fmt.Fprintf(stderr, "bad budget %q: %v\n", pos[4], err)
		return 2
	}
	out := pos[5]

	tune := tuning.Default()
	if p := strings.TrimSpace(*tuningPath); p != "" {
		if tune, err = tuning.Load(p); err != nil {
			fmt.Fprintln(stderr, "tuning:", err)
			return 1
		}
	}
	cat := catalog.Default()
	if p := strings.TrimSpace(*catalogPath); p != "" {
		if cat, err = catalog.Load(p); err != nil {
			fmt.Fprintln(stderr, "catalog:", err)
			return 1
		}
	}

	req := build.Request{
		Footprint:    plan.Footprint{Width: dims[0], Depth: dims[1], Height: dims[2]},
		LocationSize: dims[3],
		Budget:       budget,
	}
	if s := strings.TrimSpace(*seedFlag); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			fmt.Fprintf(stderr, "bad -seed %q\n", s)
			return 2
		}
		req.Seed = &seed
	}
	if err := build.Validate(req); err != nil {
		fmt.Fprintln(stderr, "invalid request:", err)
		return 2
	}

	seed := build.SeedFor(req, tune.DefaultSeed)
	scene, err := plan.New(tune.PlanOptions(), cat).Generate(req.Footprint, budget.Float(), seed)
	if err != nil {
		fmt.Fprintln(stderr, "plan:", err)
		return 1
	}
	for _, o := range scene.Overlaps() {
		logger.Printf("warning: rooms overlap: %s / %s", o.A, o.B)
	}

	if p := strings.TrimSpace(*scenePath); p != "" {
		if err := scenefile.Write(p, scene); err != nil {
			fmt.Fprintln(stderr, "scene:", err)
			return 1
		}
	}

	switch strings.ToLower(*format) {
	case "glb":
		job := render.Job{Scene: scene, LocationSize: req.LocationSize, OutPath: out}
		if err := glb.New().Render(context.Background(), job); err != nil {
			fmt.Fprintln(stderr, "render:", err)
			return 1
		}
	case "json":
		if err := writeSceneJSON(out, scene, stdout); err != nil {
			fmt.Fprintln(stderr, "write:", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "unknown -format %q\n", *format)
		return 2
	}

	summary := stdout
	if out == "-" {
		// stdout carries the scene itself.
		summary = stderr
	}
	fmt.Fprintf(summary, "wrote %s seed=%d rooms=%d elements=%d\n", out, scene.Seed, len(scene.Rooms), len(scene.Elements))
	return 0
}

// writeSceneJSON writes to path, or to stdout when path is "-".
func writeSceneJSON(path string, s *plan.Scene, stdout io.Writer) error {
	if path == "-" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
