package plan

import "housegen.ai/internal/layout/geom"

type RoomType string

const (
	Bedroom       RoomType = "Bedroom"
	Bathroom      RoomType = "Bathroom"
	Kitchen       RoomType = "Kitchen"
	LivingRoom    RoomType = "Living Room"
	MasterBedroom RoomType = "Master Bedroom"
	GuestBedroom  RoomType = "Guest Bedroom"
	Office        RoomType = "Office"
	DiningRoom    RoomType = "Dining Room"
)

type tier struct {
	max   float64
	rooms []RoomType
}

// Upper bounds are inclusive. Budgets above the last tier get upscale.
var (
	tiers = []tier{
		{max: 500, rooms: []RoomType{Bedroom, Bathroom}},
		{max: 1000, rooms: []RoomType{Bedroom, Bathroom, Kitchen}},
		{max: 3000, rooms: []RoomType{Bedroom, Bathroom, Kitchen, LivingRoom}},
		{max: 8000, rooms: []RoomType{MasterBedroom, GuestBedroom, Bathroom, Kitchen, LivingRoom}},
	}
	upscale = []RoomType{MasterBedroom, GuestBedroom, Bathroom, Kitchen, LivingRoom, Office}
)

// Program returns the ordered room program for a budget. The result is a
// fresh slice the caller may keep.
func Program(budget float64) []RoomType {
	for _, t := range tiers {
		if budget <= t.max {
			return append([]RoomType(nil), t.rooms...)
		}
	}
	return append([]RoomType(nil), upscale...)
}

// RoomSize returns the room's (width, depth) as a fraction of the footprint.
func RoomSize(rt RoomType, fp Footprint) geom.Vec2 {
	w, d := fp.Width, fp.Depth
	switch rt {
	case Bathroom:
		return geom.Vec2{X: w / 3, Y: d / 3}
	case Bedroom, Kitchen, Office, GuestBedroom, MasterBedroom:
		return geom.Vec2{X: w / 2, Y: d / 2}
	case LivingRoom:
		return geom.Vec2{X: w / 1.5, Y: d}
	default:
		return geom.Vec2{X: w / 4, Y: d / 4}
	}
}
