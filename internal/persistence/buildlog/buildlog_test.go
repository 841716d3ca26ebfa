package buildlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_AppendsAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := w.Write(Event{Time: day, Status: StatusOK, BuildID: 1, Seed: 42, Budget: "700.00", Rooms: 3, Renderer: "glb"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(Event{Time: day.Add(time.Hour), Status: StatusFailed, Seed: 7, Renderer: "blender", Error: "model file was not generated"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(w.Path(day))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 || got[1].Status != StatusFailed || got[1].Error == "" || !got[0].Time.Equal(day) {
		t.Fatalf("events=%+v", got)
	}
}

func TestWriter_RotatesDaily(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	d1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	d2 := d1.Add(2 * time.Minute)
	for _, ts := range []time.Time{d1, d2, d2} {
		if err := w.Write(Event{Time: ts, Status: StatusOK}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "builds-2026-03-01.jsonl.zst" || filepath.Base(files[1]) != "builds-2026-03-02.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	second, err := ReadFile(files[1])
	if err != nil || len(second) != 2 {
		t.Fatalf("second day=%v err=%v", second, err)
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewWriter(dir)
		if err := w.Write(Event{Time: day, Status: StatusOK, BuildID: int64(i + 1)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	got, err := ReadFile(NewWriter(dir).Path(day))
	if err != nil || len(got) != 2 || got[1].BuildID != 2 {
		t.Fatalf("events=%+v err=%v", got, err)
	}
}

func TestWriter_DefaultsTime(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	w := NewWriter(dir)
	w.now = func() time.Time { return fixed }
	if err := w.Write(Event{Status: StatusOK}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = w.Close()
	if _, err := os.Stat(w.Path(fixed)); err != nil {
		t.Fatalf("expected file for fixed day: %v", err)
	}
}

func TestFiles_MissingDir(t *testing.T) {
	if _, err := Files(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Fatalf("err=%v", err)
	}
}
