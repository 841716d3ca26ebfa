// Package buildlog appends one JSON line per build attempt to daily,
// zstd-compressed files (builds-2006-01-02.jsonl.zst).
package buildlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	prefix = "builds"
	ext    = ".jsonl.zst"
)

type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

type Event struct {
	Time       time.Time `json:"time"`
	Status     Status    `json:"status"`
	BuildID    int64     `json:"build_id,omitempty"`
	ProjectID  int64     `json:"project_id,omitempty"`
	Seed       int64     `json:"seed"`
	Width      float64   `json:"width"`
	Depth      float64   `json:"depth"`
	Height     float64   `json:"height"`
	Budget     string    `json:"budget"`
	Rooms      int       `json:"rooms,omitempty"`
	Elements   int       `json:"elements,omitempty"`
	Overlaps   int       `json:"overlaps,omitempty"`
	Renderer   string    `json:"renderer"`
	Model      string    `json:"model,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

// Writer rotates at UTC day boundaries. Every Write ends a zstd block, so a
// file can be read while the server still appends to it.
type Writer struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

func (w *Writer) Write(e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = w.now().UTC()
	}
	day := e.Time.UTC().Format("2006-01-02")
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Path is the file events for day go to.
func (w *Writer) Path(day time.Time) string {
	return filepath.Join(w.dir, prefix+"-"+day.UTC().Format("2006-01-02")+ext)
}

func (w *Writer) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, prefix+"-"+day+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curDay = day
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.w = nil
	w.curDay = ""
	return err
}

// ReadFile decodes every event in one log file. A torn final line is
// ignored. Reading a file that is still open for writing may end with an
// error; the events decoded up to that point are returned with it.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Event
	br := bufio.NewReader(dec)
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			var e Event
			if err := json.Unmarshal(line, &e); err != nil {
				return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			out = append(out, e)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				return out, nil
			}
			return out, rerr
		}
	}
}

// Files lists the log files in dir, oldest first.
func Files(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ext) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
