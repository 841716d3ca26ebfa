package blender

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/render"
)

// fakeHost writes a shell script that stands in for the host binary.
func fakeHost(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake-blender")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func testJob(t *testing.T) render.Job {
	return render.Job{
		Scene: &plan.Scene{
			Footprint: plan.Footprint{Width: 5, Depth: 5, Height: 3},
			Budget:    5000,
		},
		LocationSize: 50,
		OutPath:      filepath.Join(t.TempDir(), "media", "room_model.glb"),
	}
}

func TestArgs_PositionalContract(t *testing.T) {
	r := New(Config{Script: "gen.py"})
	job := testJob(t)
	job.Scene.Footprint.Height = 2.5
	job.Scene.Budget = 700.5
	got := strings.Join(r.Args(job), " ")
	want := "--background --python gen.py -- 5 5 2.5 50 700.5 " + job.OutPath
	if got != want {
		t.Fatalf("args=%q want %q", got, want)
	}
}

func TestRender_Success(t *testing.T) {
	// Output path is the last positional argument.
	bin := fakeHost(t, `for a; do out="$a"; done
echo "building $out"
echo "warn" 1>&2
printf glb > "$out"
`)
	var buf bytes.Buffer
	r := New(Config{Bin: bin, Script: "gen.py", Logger: log.New(&buf, "[blender] ", 0)})
	job := testJob(t)
	if err := r.Render(context.Background(), job); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(job.OutPath); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	logs := buf.String()
	if !strings.Contains(logs, "stdout: building "+job.OutPath) || !strings.Contains(logs, "stderr: warn") {
		t.Fatalf("logs=%q", logs)
	}
}

func TestRender_NoOutput(t *testing.T) {
	bin := fakeHost(t, "exit 0\n")
	r := New(Config{Bin: bin, Script: "gen.py", Logger: log.New(&bytes.Buffer{}, "", 0)})
	job := testJob(t)
	if err := os.MkdirAll(filepath.Dir(job.OutPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	// Left over from a previous run; must not be mistaken for output.
	if err := os.WriteFile(job.OutPath, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.Render(context.Background(), job); !errors.Is(err, ErrNoOutput) {
		t.Fatalf("err=%v want ErrNoOutput", err)
	}
}

func TestRender_FailingHost(t *testing.T) {
	bin := fakeHost(t, "echo boom 1>&2\nexit 3\n")
	r := New(Config{Bin: bin, Script: "gen.py", Logger: log.New(&bytes.Buffer{}, "", 0)})
	err := r.Render(context.Background(), testJob(t))
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("err=%v want ErrNoOutput", err)
	}
}

func TestRender_MissingBinary(t *testing.T) {
	r := New(Config{Bin: filepath.Join(t.TempDir(), "absent"), Script: "gen.py"})
	if err := r.Render(context.Background(), testJob(t)); err == nil || errors.Is(err, ErrNoOutput) {
		t.Fatalf("err=%v want start error", err)
	}
}

func TestRender_NoScript(t *testing.T) {
	if err := New(Config{}).Render(context.Background(), testJob(t)); err == nil {
		t.Fatalf("expected error")
	}
}
