// Package blender renders scenes by running an external host application
// (Blender in background mode) with a generator script. The script receives
// the request positionally after "--":
//
//	width length height location_size budget output_path
package blender

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"housegen.ai/internal/render"
)

// ErrNoOutput is returned when the host exits without producing the model.
var ErrNoOutput = errors.New("model file was not generated")

type Config struct {
	Bin    string
	Script string
	Logger *log.Logger
}

type Renderer struct {
	cfg Config
}

func New(cfg Config) *Renderer {
	if cfg.Bin == "" {
		cfg.Bin = "blender"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[blender] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Renderer{cfg: cfg}
}

func (r *Renderer) Name() string { return render.BackendBlender }

// Args is the argument vector passed to the host binary.
func (r *Renderer) Args(job render.Job) []string {
	s := job.Scene
	return []string{
		"--background",
		"--python", r.cfg.Script,
		"--",
		formatFloat(s.Footprint.Width),
		formatFloat(s.Footprint.Depth),
		formatFloat(s.Footprint.Height),
		formatFloat(job.LocationSize),
		formatFloat(s.Budget),
		job.OutPath,
	}
}

func (r *Renderer) Render(ctx context.Context, job render.Job) error {
	if job.Scene == nil {
		return fmt.Errorf("blender: nil scene")
	}
	if r.cfg.Script == "" {
		return fmt.Errorf("blender: no script configured")
	}
	if err := os.MkdirAll(filepath.Dir(job.OutPath), 0o755); err != nil {
		return err
	}
	// A stale file from an earlier build must not count as output.
	if err := os.Remove(job.OutPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	cmd := exec.CommandContext(ctx, r.cfg.Bin, r.Args(job)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("blender: start: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go r.pump(&wg, "stdout", stdout)
	go r.pump(&wg, "stderr", stderr)
	wg.Wait()

	runErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if runErr != nil {
		r.cfg.Logger.Printf("exit: %v", runErr)
	}
	if _, err := os.Stat(job.OutPath); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w: %v", ErrNoOutput, runErr)
		}
		return ErrNoOutput
	}
	return nil
}

func (r *Renderer) pump(wg *sync.WaitGroup, stream string, rd io.Reader) {
	defer wg.Done()
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r.cfg.Logger.Printf("%s: %s", stream, sc.Text())
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
