package plan

import (
	"housegen.ai/internal/layout/geom"
)

type Footprint struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

// Bounds is the footprint's ground rectangle, centered on the origin.
func (fp Footprint) Bounds() geom.Rect {
	return geom.RectAround(geom.Vec2{}, geom.Vec2{X: fp.Width, Y: fp.Depth})
}

type Kind string

const (
	KindFloor     Kind = "Floor"
	KindWall      Kind = "Wall"
	KindDoor      Kind = "Door"
	KindWindow    Kind = "Window"
	KindFurniture Kind = "Furniture"
)

var Kinds = []Kind{KindFloor, KindWall, KindDoor, KindWindow, KindFurniture}

// Element is one primitive solid of the scene. Extent is measured in the
// element's local frame; Rotation is Euler XYZ in radians.
type Element struct {
	Kind     Kind      `json:"kind"`
	Label    string    `json:"label"`
	Room     RoomType  `json:"room,omitempty"`
	Item     string    `json:"item,omitempty"`
	Position geom.Vec3 `json:"position"`
	Extent   geom.Vec3 `json:"extent"`
	Rotation geom.Vec3 `json:"rotation"`
}

type Room struct {
	Type   RoomType  `json:"type"`
	Center geom.Vec2 `json:"center"`
	Size   geom.Vec2 `json:"size"`
}

func (r Room) Bounds() geom.Rect { return geom.RectAround(r.Center, r.Size) }

type Wall string

const (
	WallFront Wall = "Front Wall"
	WallBack  Wall = "Back Wall"
	WallRight Wall = "Right Wall"
	WallLeft  Wall = "Left Wall"
)

var ExteriorWalls = []Wall{WallFront, WallBack, WallRight, WallLeft}

// Horizontal reports whether the wall runs along the width axis.
func (w Wall) Horizontal() bool { return w == WallFront || w == WallBack }

// Window is an accepted window placement. Offset is measured along the wall
// from its midpoint; Height is the window center above the floor.
type Window struct {
	Wall   Wall    `json:"wall"`
	Offset float64 `json:"offset"`
	Height float64 `json:"height"`
}

type Scene struct {
	Footprint Footprint `json:"footprint"`
	Budget    float64   `json:"budget"`
	Seed      int64     `json:"seed"`
	Rooms     []Room    `json:"rooms"`
	Windows   []Window  `json:"windows"`
	Elements  []Element `json:"elements"`
}

// Overlap names two rooms whose rectangles intersect.
type Overlap struct {
	A RoomType `json:"a"`
	B RoomType `json:"b"`
}

// Overlaps lists every pair of overlapping rooms in program order.
func (s *Scene) Overlaps() []Overlap {
	var out []Overlap
	for i := 0; i < len(s.Rooms); i++ {
		for j := i + 1; j < len(s.Rooms); j++ {
			if s.Rooms[i].Bounds().Overlaps(s.Rooms[j].Bounds()) {
				out = append(out, Overlap{A: s.Rooms[i].Type, B: s.Rooms[j].Type})
			}
		}
	}
	return out
}

func (s *Scene) Count(k Kind) int {
	n := 0
	for _, e := range s.Elements {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (s *Scene) WindowsOn(w Wall) []Window {
	var out []Window
	for _, win := range s.Windows {
		if win.Wall == w {
			out = append(out, win)
		}
	}
	return out
}

func (s *Scene) RoomTypes() []RoomType {
	out := make([]RoomType, 0, len(s.Rooms))
	for _, r := range s.Rooms {
		out = append(out, r.Type)
	}
	return out
}
