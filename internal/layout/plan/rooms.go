package plan

import (
	"math/rand"

	"housegen.ai/internal/layout/geom"
)

// CandidatePositions returns the eight room anchors: corners, then side
// midpoints, each inset from the exterior walls.
func CandidatePositions(fp Footprint, inset float64) []geom.Vec2 {
	hw, hd := fp.Width/2, fp.Depth/2
	return []geom.Vec2{
		{X: -hw + inset, Y: hd - inset},
		{X: hw - inset, Y: hd - inset},
		{X: -hw + inset, Y: -hd + inset},
		{X: hw - inset, Y: -hd + inset},
		{X: -hw + inset, Y: 0},
		{X: hw - inset, Y: 0},
		{X: 0, Y: -hd + inset},
		{X: 0, Y: hd - inset},
	}
}

// assignRooms shuffles the candidates and hands them out in program order.
// Centers are pulled inward so each room stays inside the footprint; rooms
// may still overlap each other.
func (p *Planner) assignRooms(fp Footprint, program []RoomType, rng *rand.Rand) []Room {
	cands := CandidatePositions(fp, p.opts.Inset)
	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	rooms := make([]Room, 0, len(program))
	for i, rt := range program {
		if i >= len(cands) {
			break
		}
		size := RoomSize(rt, fp)
		rooms = append(rooms, Room{
			Type:   rt,
			Center: clampInto(cands[i], size, fp),
			Size:   size,
		})
	}
	return rooms
}

func clampInto(c, size geom.Vec2, fp Footprint) geom.Vec2 {
	mx := (fp.Width - size.X) / 2
	my := (fp.Depth - size.Y) / 2
	return geom.Vec2{
		X: geom.Clamp(c.X, -mx, mx),
		Y: geom.Clamp(c.Y, -my, my),
	}
}
