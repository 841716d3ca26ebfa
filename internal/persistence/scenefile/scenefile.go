// Package scenefile stores planned scenes as zstd-compressed JSON archives.
// The first line of the decompressed stream is a JSON header so tools can
// summarize an archive without decoding the whole scene.
package scenefile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"housegen.ai/internal/layout/plan"
)

const Version = 1

// Ext is the conventional suffix for scene archives.
const Ext = ".scene.zst"

var ErrVersion = errors.New("unsupported scene archive version")

type Header struct {
	Version   int            `json:"version"`
	Seed      int64          `json:"seed"`
	Budget    float64        `json:"budget"`
	Footprint plan.Footprint `json:"footprint"`
	Rooms     int            `json:"rooms"`
	Elements  int            `json:"elements"`
	Windows   int            `json:"windows"`
}

func HeaderFor(s *plan.Scene) Header {
	return Header{
		Version:   Version,
		Seed:      s.Seed,
		Budget:    s.Budget,
		Footprint: s.Footprint,
		Rooms:     len(s.Rooms),
		Elements:  len(s.Elements),
		Windows:   len(s.Windows),
	}
}

func Write(path string, s *plan.Scene) error {
	if s == nil {
		return fmt.Errorf("nil scene")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(HeaderFor(s))
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(s); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

func open(path string) (*os.File, *zstd.Decoder, *bufio.Reader, Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, h, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, h, err
	}
	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		dec.Close()
		f.Close()
		return nil, nil, nil, h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		dec.Close()
		f.Close()
		return nil, nil, nil, h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		dec.Close()
		f.Close()
		return nil, nil, nil, h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return f, dec, br, h, nil
}

func ReadHeader(path string) (Header, error) {
	f, dec, _, h, err := open(path)
	if err != nil {
		return h, err
	}
	dec.Close()
	f.Close()
	return h, nil
}

func Read(path string) (*plan.Scene, error) {
	f, dec, br, _, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer dec.Close()

	var s plan.Scene
	if err := json.NewDecoder(br).Decode(&s); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &s, nil
}
