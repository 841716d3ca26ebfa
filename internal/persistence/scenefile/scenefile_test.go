package scenefile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"housegen.ai/internal/layout/plan"
)

func testScene(t *testing.T) *plan.Scene {
	t.Helper()
	p := plan.New(plan.DefaultOptions(), nil)
	s, err := p.Generate(plan.Footprint{Width: 10, Depth: 8, Height: 2.5}, 700, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := testScene(t)
	path := filepath.Join(t.TempDir(), "scenes", "42"+Ext)
	if err := Write(path, s); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip mismatch")
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	want := HeaderFor(s)
	if h != want {
		t.Fatalf("header=%+v want %+v", h, want)
	}
	if h.Rooms != 3 || h.Seed != 42 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestWrite_IsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s"+Ext)
	if err := Write(path, testScene(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// zstd frame magic.
	if !bytes.HasPrefix(raw, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Fatalf("missing zstd magic: % x", raw[:4])
	}
}

func TestRead_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9"+Ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	_, _ = enc.Write([]byte("{\"version\":9}\n{}\n"))
	_ = enc.Close()
	_ = f.Close()

	if _, err := Read(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("Read err=%v want ErrVersion", err)
	}
	if _, err := ReadHeader(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("ReadHeader err=%v want ErrVersion", err)
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope"+Ext)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v want not-exist", err)
	}
}

func TestWrite_NilScene(t *testing.T) {
	if err := Write(filepath.Join(t.TempDir(), "x"), nil); err == nil {
		t.Fatalf("expected error")
	}
}
