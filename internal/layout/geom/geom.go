package geom

import (
	"math"
	"math/rand"
)

// Vec2 is a point on the ground plane (X along width, Y along depth).
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec3 is a point or extent in Z-up space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec2) Lift(z float64) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: z} }

// Rect is an axis-aligned rectangle on the ground plane.
type Rect struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

func RectAround(center, size Vec2) Rect {
	hx, hy := size.X/2, size.Y/2
	return Rect{
		Min: Vec2{X: center.X - hx, Y: center.Y - hy},
		Max: Vec2{X: center.X + hx, Y: center.Y + hy},
	}
}

// Within reports whether r lies inside outer, allowing eps of rounding slack.
func (r Rect) Within(outer Rect, eps float64) bool {
	return r.Min.X >= outer.Min.X-eps && r.Min.Y >= outer.Min.Y-eps &&
		r.Max.X <= outer.Max.X+eps && r.Max.Y <= outer.Max.Y+eps
}

// Overlaps reports a positive-area intersection; touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X &&
		r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Uniform samples [a, b) (or (b, a] when b < a) from rng.
func Uniform(rng *rand.Rand, a, b float64) float64 {
	return a + (b-a)*rng.Float64()
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
