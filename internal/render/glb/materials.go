package glb

import (
	"github.com/qmuntal/gltf"

	"housegen.ai/internal/layout/plan"
)

type materialDef struct {
	name  string
	color [4]float32
}

var kindMaterials = map[plan.Kind]materialDef{
	plan.KindFloor:     {"Floor_Material", [4]float32{0.8, 0.8, 0.8, 1}},
	plan.KindWall:      {"Wall_Material", [4]float32{0.85, 0.85, 0.82, 1}},
	plan.KindDoor:      {"Wood_Material", [4]float32{0.4, 0.2, 0.1, 1}},
	plan.KindWindow:    {"Glass_Material", [4]float32{0.5, 0.7, 1, 0.1}},
	plan.KindFurniture: {"Furniture_Material", [4]float32{0.7, 0.5, 0.3, 1}},
}

// Furniture items with their own finish; anything else uses the kind default.
var itemMaterials = map[string]materialDef{
	"bed":    {"Bed_Material", [4]float32{0.6, 0.4, 0.3, 1}},
	"sofa":   {"Fabric_Material", [4]float32{0.3, 0.3, 0.3, 1}},
	"table":  {"Table_Material", [4]float32{0.7, 0.5, 0.3, 1}},
	"chair":  {"Table_Material", [4]float32{0.7, 0.5, 0.3, 1}},
	"desk":   {"Table_Material", [4]float32{0.7, 0.5, 0.3, 1}},
	"sink":   {"Ceramic_Material", [4]float32{1, 1, 1, 1}},
	"toilet": {"Ceramic_Material", [4]float32{1, 1, 1, 1}},
}

var fallbackMaterial = materialDef{"Default_Material", [4]float32{0.8, 0.8, 0.8, 1}}

// materials lazily appends one glTF material per distinct name.
type materials struct {
	doc    *gltf.Document
	byName map[string]int
}

func newMaterials(doc *gltf.Document) *materials {
	return &materials{doc: doc, byName: map[string]int{}}
}

func (m *materials) forElement(e plan.Element) int {
	def, ok := kindMaterials[e.Kind]
	if !ok {
		def = fallbackMaterial
	}
	if e.Kind == plan.KindFurniture {
		if d, ok := itemMaterials[e.Item]; ok {
			def = d
		}
	}
	return m.index(def)
}

func (m *materials) index(def materialDef) int {
	if i, ok := m.byName[def.name]; ok {
		return i
	}
	color := def.color
	mat := &gltf.Material{
		Name: def.name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	if color[3] < 1 {
		mat.AlphaMode = gltf.AlphaBlend
		mat.DoubleSided = true
	}
	m.doc.Materials = append(m.doc.Materials, mat)
	i := len(m.doc.Materials) - 1
	m.byName[def.name] = i
	return i
}
