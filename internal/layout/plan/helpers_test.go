package plan

import "housegen.ai/internal/layout/geom"

func vec2(x, y float64) geom.Vec2 { return geom.Vec2{X: x, Y: y} }
