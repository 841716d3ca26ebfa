package plan

import (
	"math"
	"math/rand"
	"strconv"

	"housegen.ai/internal/layout/geom"
)

// placeWindows draws up to MaxWindowsPerWall windows for one exterior wall.
// Each window gets WindowAttempts tries to land at least MinWindowGap away
// (along the wall) from the windows already accepted; a window that never
// fits is dropped.
func (p *Planner) placeWindows(fp Footprint, wall Wall, rng *rand.Rand) []Window {
	n := rng.Intn(p.opts.MaxWindowsPerWall + 1)
	span := fp.Depth / 3
	if wall.Horizontal() {
		span = fp.Width / 3
	}

	var placed []Window
	for i := 0; i < n; i++ {
		for attempt := 0; attempt < p.opts.WindowAttempts; attempt++ {
			var cand Window
			cand.Wall = wall
			if wall.Horizontal() {
				cand.Offset = geom.Uniform(rng, -span, span)
				cand.Height = geom.Uniform(rng, 1, fp.Height-1)
			} else {
				cand.Height = geom.Uniform(rng, 1, fp.Height-1)
				cand.Offset = geom.Uniform(rng, -span, span)
			}
			if clearOf(placed, cand.Offset, p.opts.MinWindowGap) {
				placed = append(placed, cand)
				break
			}
		}
	}
	return placed
}

func clearOf(placed []Window, offset, gap float64) bool {
	for _, w := range placed {
		if math.Abs(w.Offset-offset) < gap {
			return false
		}
	}
	return true
}

func (p *Planner) windowElement(fp Footprint, win Window, n int) Element {
	e := Element{
		Kind:   KindWindow,
		Label:  string(win.Wall) + " Window " + strconv.Itoa(n),
		Extent: p.opts.WindowSize,
	}
	switch win.Wall {
	case WallFront:
		e.Position = geom.Vec3{X: win.Offset, Y: fp.Depth / 2, Z: win.Height}
	case WallBack:
		e.Position = geom.Vec3{X: win.Offset, Y: -fp.Depth / 2, Z: win.Height}
	case WallRight:
		e.Position = geom.Vec3{X: fp.Width / 2, Y: win.Offset, Z: win.Height}
		e.Rotation = geom.Vec3{Z: math.Pi / 2}
	case WallLeft:
		e.Position = geom.Vec3{X: -fp.Width / 2, Y: win.Offset, Z: win.Height}
		e.Rotation = geom.Vec3{Z: math.Pi / 2}
	}
	return e
}
