package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := "projects"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "projects":
		return projectsCmd(args, stdout, stderr)
	case "builds":
		return buildsCmd(args, stdout, stderr)
	case "scene":
		return sceneCmd(args, stdout, stderr)
	case "events":
		return eventsCmd(args, stdout, stderr)
	case "state":
		return stateCmd(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q (want projects|builds|scene|events|state)\n", cmd)
		return 2
	}
}

func defaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "projects.sqlite")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printJSON(w io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(w, string(b))
}
