// Package glb writes scenes as binary glTF without any external tooling.
// Every element is an instance of a shared unit cube, scaled to its extent.
package glb

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/render"
)

const Generator = "housegen glb"

type Renderer struct{}

func New() *Renderer { return &Renderer{} }

func (r *Renderer) Name() string { return render.BackendGLB }

func (r *Renderer) Render(ctx context.Context, job render.Job) error {
	if job.Scene == nil {
		return fmt.Errorf("glb: nil scene")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := Document(job.Scene)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.OutPath), 0o755); err != nil {
		return err
	}
	return gltf.SaveBinary(doc, job.OutPath)
}

// Document builds the glTF document for a scene.
func Document(s *plan.Scene) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	cube := addCube(doc)
	mats := newMaterials(doc)
	meshes := map[int]uint32{}

	for i, e := range s.Elements {
		// Checked after narrowing: values beyond float32 range become Inf.
		t, q, sc := nodeTransform(e)
		if !finite32(t[:]...) || !finite32(q[:]...) || !finite32(sc[:]...) {
			return nil, fmt.Errorf("glb: element %d (%s) has geometry outside float32 range", i, e.Label)
		}
		mat := mats.forElement(e)
		mesh, ok := meshes[mat]
		if !ok {
			mesh = uint32(len(doc.Meshes))
			doc.Meshes = append(doc.Meshes, &gltf.Mesh{
				Name: doc.Materials[mat].Name,
				Primitives: []*gltf.Primitive{{
					Attributes: map[string]uint32{
						gltf.POSITION: cube.position,
						gltf.NORMAL:   cube.normal,
					},
					Indices:  gltf.Index(cube.indices),
					Material: gltf.Index(uint32(mat)),
				}},
			})
			meshes[mat] = mesh
		}

		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        e.Label,
			Mesh:        gltf.Index(mesh),
			Translation: t,
			Rotation:    q,
			Scale:       sc,
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}
	return doc, nil
}

type cubeAccessors struct {
	position, normal, indices uint32
}

// addCube writes a unit cube centered on the origin with flat normals.
func addCube(doc *gltf.Document) cubeAccessors {
	type face struct {
		n    [3]float32
		u, v [3]float32
	}
	faces := []face{
		{n: [3]float32{1, 0, 0}, u: [3]float32{0, 1, 0}, v: [3]float32{0, 0, 1}},
		{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 1, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{1, 0, 0}},
		{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 0, -1}, u: [3]float32{0, 1, 0}, v: [3]float32{1, 0, 0}},
	}
	positions := make([][3]float32, 0, 24)
	normals := make([][3]float32, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(positions))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			var p [3]float32
			for k := 0; k < 3; k++ {
				p[k] = 0.5*f.n[k] + 0.5*c[0]*f.u[k] + 0.5*c[1]*f.v[k]
			}
			positions = append(positions, p)
			normals = append(normals, f.n)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return cubeAccessors{
		position: uint32(modeler.WritePosition(doc, positions)),
		normal:   uint32(modeler.WriteNormal(doc, normals)),
		indices:  uint32(modeler.WriteIndices(doc, indices)),
	}
}

// nodeTransform converts an element from the planner's Z-up frame to glTF's
// Y-up frame: (x, y, z) maps to (x, z, -y).
func nodeTransform(e plan.Element) ([3]float32, [4]float32, [3]float32) {
	p := e.Position
	t := [3]float32{float32(p.X), float32(p.Z), float32(-p.Y)}

	qx, qy, qz, qw := eulerXYZ(e.Rotation.X, e.Rotation.Y, e.Rotation.Z)
	q := [4]float32{float32(qx), float32(qz), float32(-qy), float32(qw)}

	x := e.Extent
	s := [3]float32{float32(x.X), float32(x.Z), float32(x.Y)}
	return t, q, s
}

// eulerXYZ returns the quaternion for rotating about X, then Y, then Z
// (extrinsic), i.e. q = qz * qy * qx.
func eulerXYZ(rx, ry, rz float64) (x, y, z, w float64) {
	sx, cx := math.Sincos(rx / 2)
	sy, cy := math.Sincos(ry / 2)
	sz, cz := math.Sincos(rz / 2)
	w = cz*cy*cx + sz*sy*sx
	x = cz*cy*sx - sz*sy*cx
	y = cz*sy*cx + sz*cy*sx
	z = sz*cy*cx - cz*sy*sx
	return
}

func finite32(vs ...float32) bool {
	for _, v := range vs {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
