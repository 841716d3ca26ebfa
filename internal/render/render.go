// Package render turns planned scenes into model files.
package render

import (
	"context"
	"errors"
	"strings"

	"housegen.ai/internal/layout/plan"
)

// Job is one render request. LocationSize is carried for backends that
// consume the full request (the host renderer does; the scene does not
// depend on it).
type Job struct {
	Scene        *plan.Scene
	LocationSize float64
	OutPath      string
}

// ErrFailed wraps every backend failure surfaced by the build pipeline.
var ErrFailed = errors.New("render failed")

type Renderer interface {
	Name() string
	Render(ctx context.Context, job Job) error
}

// Backend names accepted by tuning and the -renderer flag.
const (
	BackendGLB     = "glb"
	BackendBlender = "blender"
)

func KnownBackend(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendGLB, BackendBlender:
		return true
	default:
		return false
	}
}
