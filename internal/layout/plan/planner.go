// Package plan builds an engine-agnostic house layout from a footprint and a
// budget. It performs no I/O; all randomness comes from the caller's rng.
package plan

import (
	"fmt"
	"math"
	"math/rand"

	"housegen.ai/internal/layout/catalog"
	"housegen.ai/internal/layout/geom"
)

type Planner struct {
	opts    Options
	catalog *catalog.Catalog
}

// New returns a Planner. A nil catalog uses catalog.Default().
func New(opts Options, cat *catalog.Catalog) *Planner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Planner{opts: opts, catalog: cat}
}

func (p *Planner) Options() Options { return p.opts }

// Validate checks inputs before any placement happens.
func Validate(fp Footprint, budget float64) error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", fp.Width}, {"depth", fp.Depth}, {"height", fp.Height}} {
		if !geom.Finite(d.v) || d.v <= 0 {
			return fmt.Errorf("%w: %s=%v must be > 0", ErrInvalidDimensions, d.name, d.v)
		}
	}
	if math.IsNaN(budget) || budget < 0 {
		return fmt.Errorf("%w: budget=%v must be >= 0", ErrInvalidBudget, budget)
	}
	return nil
}

// Generate plans with a generator seeded from seed.
func (p *Planner) Generate(fp Footprint, budget float64, seed int64) (*Scene, error) {
	s, err := p.Plan(fp, budget, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	s.Seed = seed
	return s, nil
}

// Plan lays out the house. The draw order on rng is fixed: window counts and
// positions wall by wall, then the candidate shuffle.
func (p *Planner) Plan(fp Footprint, budget float64, rng *rand.Rand) (*Scene, error) {
	if err := Validate(fp, budget); err != nil {
		return nil, err
	}
	s := &Scene{Footprint: fp, Budget: budget}

	p.addShell(s)
	for _, w := range ExteriorWalls {
		wins := p.placeWindows(fp, w, rng)
		for i, win := range wins {
			s.Windows = append(s.Windows, win)
			s.Elements = append(s.Elements, p.windowElement(fp, win, i+1))
		}
	}

	s.Rooms = p.assignRooms(fp, Program(budget), rng)
	for _, r := range s.Rooms {
		p.addRoomStructure(s, r)
	}
	for _, r := range s.Rooms {
		for _, f := range p.catalog.Furnish(string(r.Type), r.Center) {
			s.Elements = append(s.Elements, Element{
				Kind:     KindFurniture,
				Label:    f.Label,
				Room:     r.Type,
				Item:     f.Item,
				Position: f.Position,
				Extent:   f.Size,
			})
		}
	}
	return s, nil
}

func (p *Planner) addShell(s *Scene) {
	fp := s.Footprint
	w, d, h := fp.Width, fp.Depth, fp.Height
	t := p.opts.WallThickness
	ft := p.opts.FloorThickness

	s.Elements = append(s.Elements, Element{
		Kind:     KindFloor,
		Label:    "Floor",
		Position: geom.Vec3{Z: -ft / 2},
		Extent:   geom.Vec3{X: w, Y: d, Z: ft},
	})
	walls := []Element{
		{Label: string(WallFront), Position: geom.Vec3{Y: d / 2, Z: h / 2}, Extent: geom.Vec3{X: w, Y: t, Z: h}},
		{Label: string(WallBack), Position: geom.Vec3{Y: -d / 2, Z: h / 2}, Extent: geom.Vec3{X: w, Y: t, Z: h}},
		{Label: string(WallRight), Position: geom.Vec3{X: w / 2, Z: h / 2}, Extent: geom.Vec3{X: t, Y: d, Z: h}},
		{Label: string(WallLeft), Position: geom.Vec3{X: -w / 2, Z: h / 2}, Extent: geom.Vec3{X: t, Y: d, Z: h}},
	}
	for _, e := range walls {
		e.Kind = KindWall
		s.Elements = append(s.Elements, e)
	}

	door := p.opts.DoorSize
	s.Elements = append(s.Elements, Element{
		Kind:     KindDoor,
		Label:    "Front Door",
		Position: geom.Vec3{Y: d/2 + p.opts.FrontDoorOutset, Z: door.Z / 2},
		Extent:   geom.Vec3{X: door.X, Y: door.Y, Z: door.Z},
	})
}

func (p *Planner) addRoomStructure(s *Scene, r Room) {
	h := s.Footprint.Height
	t := p.opts.WallThickness
	ft := p.opts.FloorThickness
	x, y := r.Center.X, r.Center.Y
	rw, rd := r.Size.X, r.Size.Y
	name := string(r.Type)

	s.Elements = append(s.Elements, Element{
		Kind:     KindFloor,
		Label:    name + " Floor",
		Room:     r.Type,
		Position: geom.Vec3{X: x, Y: y, Z: -ft / 2},
		Extent:   geom.Vec3{X: rw, Y: rd, Z: ft},
	})
	walls := []Element{
		{Label: name + " Top Wall", Position: geom.Vec3{X: x, Y: y + rd/2, Z: h / 2}, Extent: geom.Vec3{X: rw, Y: t, Z: h}},
		{Label: name + " Bottom Wall", Position: geom.Vec3{X: x, Y: y - rd/2, Z: h / 2}, Extent: geom.Vec3{X: rw, Y: t, Z: h}},
		{Label: name + " Left Wall", Position: geom.Vec3{X: x - rw/2, Y: y, Z: h / 2}, Extent: geom.Vec3{X: t, Y: rd, Z: h}},
		{Label: name + " Right Wall", Position: geom.Vec3{X: x + rw/2, Y: y, Z: h / 2}, Extent: geom.Vec3{X: t, Y: rd, Z: h}},
	}
	for _, e := range walls {
		e.Kind = KindWall
		e.Room = r.Type
		s.Elements = append(s.Elements, e)
	}
	door := p.opts.DoorSize
	s.Elements = append(s.Elements, Element{
		Kind:     KindDoor,
		Label:    name + " Door",
		Room:     r.Type,
		Position: geom.Vec3{X: x, Y: y + rd/2, Z: door.Z / 2},
		Extent:   geom.Vec3{X: door.X, Y: door.Y, Z: door.Z},
	})
}
