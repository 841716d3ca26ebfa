// Package catalog maps room types to the furniture placed in them.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"housegen.ai/internal/layout/geom"
)

// Piece is one catalog entry, positioned relative to the room center.
// Offset.Z is the height of the piece's underside above the floor, so 0
// stands it on the floor.
type Piece struct {
	// Label may contain {room}, replaced with the room type.
	Label  string    `json:"label" yaml:"label"`
	Item   string    `json:"item" yaml:"item"`
	Offset geom.Vec3 `json:"offset" yaml:"offset"`
	Size   geom.Vec3 `json:"size" yaml:"size"`
}

// Placement is a Piece resolved against a concrete room center. Position is
// the center of the piece's box.
type Placement struct {
	Label    string    `json:"label"`
	Item     string    `json:"item"`
	Position geom.Vec3 `json:"position"`
	Size     geom.Vec3 `json:"size"`
}

type Catalog struct {
	ByRoom map[string][]Piece
	Digest string
}

type fileDef struct {
	Rooms []roomDef `yaml:"rooms"`
}

type roomDef struct {
	Room   string  `yaml:"room"`
	Pieces []Piece `yaml:"pieces"`
}

var (
	bed    = geom.Vec3{X: 1.6, Y: 2.0, Z: 1.0}
	sofa   = geom.Vec3{X: 2.0, Y: 1.0, Z: 1.0}
	table  = geom.Vec3{X: 1.2, Y: 0.8, Z: 0.8}
	chair  = geom.Vec3{X: 0.5, Y: 0.5, Z: 1.0}
	sink   = geom.Vec3{X: 1.0, Y: 0.5, Z: 0.5}
	toilet = geom.Vec3{X: 0.6, Y: 0.6, Z: 0.8}
)

func at(x, y float64) geom.Vec3 { return geom.Vec3{X: x, Y: y} }

func diningSet() []Piece {
	return []Piece{
		{Label: "Dining Table", Item: "table", Offset: at(0, 0), Size: table},
		{Label: "Dining Chair 1", Item: "chair", Offset: at(-1, 0), Size: chair},
		{Label: "Dining Chair 2", Item: "chair", Offset: at(1, 0), Size: chair},
	}
}

// Default returns the built-in furniture table.
func Default() *Catalog {
	beds := []Piece{{Label: "{room} Bed", Item: "bed", Offset: at(0, 0), Size: bed}}
	c := &Catalog{ByRoom: map[string][]Piece{
		"Bedroom":        beds,
		"Master Bedroom": beds,
		"Guest Bedroom":  beds,
		"Living Room":    {{Label: "Sofa", Item: "sofa", Offset: at(0, 0), Size: sofa}},
		"Kitchen":        diningSet(),
		"Dining Room":    diningSet(),
		"Bathroom": {
			{Label: "Bathroom Sink", Item: "sink", Offset: at(0, 0), Size: sink},
			{Label: "Bathroom Toilet", Item: "toilet", Offset: at(0, -1), Size: toilet},
		},
		"Office": {
			{Label: "Office Desk", Item: "desk", Offset: at(0, 0), Size: table},
			{Label: "Office Chair", Item: "chair", Offset: at(0, -0.5), Size: chair},
		},
	}}
	c.Digest = c.digest()
	return c
}

// Load reads a YAML catalog. Rooms it names replace the built-in entries;
// rooms it omits keep their defaults.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def fileDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("furniture.yaml: %w", err)
	}
	c := Default()
	for _, r := range def.Rooms {
		name := strings.TrimSpace(r.Room)
		if name == "" {
			return nil, fmt.Errorf("furniture.yaml: empty room")
		}
		for _, p := range r.Pieces {
			if p.Item == "" {
				return nil, fmt.Errorf("furniture.yaml: %s: piece without item", name)
			}
			if p.Size.X <= 0 || p.Size.Y <= 0 || p.Size.Z <= 0 {
				return nil, fmt.Errorf("furniture.yaml: %s/%s: size must be positive", name, p.Item)
			}
			if p.Offset.Z < 0 {
				return nil, fmt.Errorf("furniture.yaml: %s/%s: offset.z below the floor", name, p.Item)
			}
		}
		c.ByRoom[name] = r.Pieces
	}
	c.Digest = c.digest()
	return c, nil
}

// Furnish returns the furniture for a room centered at center. Rooms without
// their own entry whose name contains "Bedroom" get the Bedroom set.
func (c *Catalog) Furnish(room string, center geom.Vec2) []Placement {
	pieces, ok := c.ByRoom[room]
	if !ok && strings.Contains(room, "Bedroom") {
		pieces = c.ByRoom["Bedroom"]
	}
	if len(pieces) == 0 {
		return nil
	}
	out := make([]Placement, 0, len(pieces))
	origin := center.Lift(0)
	for _, p := range pieces {
		pos := origin.Add(p.Offset)
		pos.Z += p.Size.Z / 2
		out = append(out, Placement{
			Label:    strings.ReplaceAll(p.Label, "{room}", room),
			Item:     p.Item,
			Position: pos,
			Size:     p.Size,
		})
	}
	return out
}

// Rooms lists the room types with entries, sorted.
func (c *Catalog) Rooms() []string {
	out := make([]string, 0, len(c.ByRoom))
	for k := range c.ByRoom {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) digest() string {
	defs := make([]roomDef, 0, len(c.ByRoom))
	for _, name := range c.Rooms() {
		defs = append(defs, roomDef{Room: name, Pieces: c.ByRoom[name]})
	}
	b, _ := json.Marshal(defs)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
