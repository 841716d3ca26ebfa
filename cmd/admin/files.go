package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"housegen.ai/internal/persistence/buildlog"
	"housegen.ai/internal/persistence/scenefile"
)

// sceneCmd prints a scene archive: the header by default, the whole scene
// with -full.
func sceneCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("scene", stderr)
	full := fs.Bool("full", false, "print the full scene instead of the header")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: admin scene [-full] <path.scene.zst>")
		return 2
	}
	path := fs.Arg(0)
	if !*full {
		h, err := scenefile.ReadHeader(path)
		if err != nil {
			fmt.Fprintln(stderr, "read:", err)
			return 1
		}
		printJSON(stdout, h)
		return 0
	}
	s, err := scenefile.Read(path)
	if err != nil {
		fmt.Fprintln(stderr, "read:", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s)
	return 0
}

func eventsCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events", stderr)
	dataDir := fs.String("data", "./data", "runtime data directory")
	day := fs.String("day", "", "only this UTC day (YYYY-MM-DD)")
	failed := fs.Bool("failed", false, "only failed builds")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files, err := buildlog.Files(filepath.Join(*dataDir, "logs"))
	if err != nil {
		fmt.Fprintln(stderr, "list:", err)
		return 1
	}
	if d := strings.TrimSpace(*day); d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			fmt.Fprintf(stderr, "bad -day %q\n", d)
			return 2
		}
		var keep []string
		for _, f := range files {
			if strings.Contains(filepath.Base(f), d) {
				keep = append(keep, f)
			}
		}
		files = keep
	}
	for _, f := range files {
		events, err := buildlog.ReadFile(f)
		for _, e := range events {
			if *failed && e.Status != buildlog.StatusFailed {
				continue
			}
			printJSON(stdout, e)
		}
		if err != nil {
			// The current file may still be open for writing.
			fmt.Fprintf(stderr, "warning: %s: %v\n", filepath.Base(f), err)
		}
	}
	return 0
}

func stateCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("state", stderr)
	baseURL := fs.String("url", "http://127.0.0.1:8000", "server base url")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(stderr, "request:", err)
		return 1
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Fprintln(stdout, strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
