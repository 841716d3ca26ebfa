package glb

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"

	"housegen.ai/internal/layout/geom"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/render"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestRender_WritesOpenableGLB(t *testing.T) {
	p := plan.New(plan.DefaultOptions(), nil)
	s, err := p.Generate(plan.Footprint{Width: 10, Depth: 8, Height: 2.5}, 700, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := filepath.Join(t.TempDir(), "models", "house.glb")
	r := New()
	if r.Name() != render.BackendGLB {
		t.Fatalf("Name=%q", r.Name())
	}
	if err := r.Render(context.Background(), render.Job{Scene: s, LocationSize: 50, OutPath: out}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	doc, err := gltf.Open(out)
	if err != nil {
		t.Fatalf("gltf.Open: %v", err)
	}
	if len(doc.Nodes) != len(s.Elements) {
		t.Fatalf("nodes=%d elements=%d", len(doc.Nodes), len(s.Elements))
	}
	if len(doc.Scenes) != 1 || len(doc.Scenes[0].Nodes) != len(s.Elements) {
		t.Fatalf("scene nodes mismatch")
	}
	for i, n := range doc.Nodes {
		if n.Name != s.Elements[i].Label {
			t.Fatalf("node %d name=%q want %q", i, n.Name, s.Elements[i].Label)
		}
		if n.Mesh == nil || int(*n.Mesh) >= len(doc.Meshes) {
			t.Fatalf("node %d has no valid mesh", i)
		}
	}
	if doc.Asset.Generator != Generator {
		t.Fatalf("generator=%q", doc.Asset.Generator)
	}
}

func TestDocument_GlassIsBlended(t *testing.T) {
	s := &plan.Scene{Elements: []plan.Element{
		{Kind: plan.KindWindow, Label: "Front Wall Window 1", Extent: geom.Vec3{X: 1.5, Y: 0.5, Z: 1.5}},
		{Kind: plan.KindFloor, Label: "Main Floor", Extent: geom.Vec3{X: 10, Y: 8, Z: 0.1}},
		{Kind: plan.KindFurniture, Label: "Sofa", Item: "sofa", Extent: geom.Vec3{X: 2, Y: 1, Z: 1}},
		{Kind: plan.KindFurniture, Label: "Bathroom Sink", Item: "sink", Extent: geom.Vec3{X: 1, Y: 0.5, Z: 0.5}},
		{Kind: plan.KindFurniture, Label: "Bathroom Toilet", Item: "toilet", Extent: geom.Vec3{X: 0.6, Y: 0.6, Z: 0.8}},
	}}
	doc, err := Document(s)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	// sink and toilet share a material and therefore a mesh.
	if len(doc.Materials) != 4 || len(doc.Meshes) != 4 {
		t.Fatalf("materials=%d meshes=%d", len(doc.Materials), len(doc.Meshes))
	}
	glass := doc.Materials[*doc.Meshes[*doc.Nodes[0].Mesh].Primitives[0].Material]
	if glass.AlphaMode != gltf.AlphaBlend {
		t.Fatalf("glass alpha mode=%v", glass.AlphaMode)
	}
	floor := doc.Materials[*doc.Meshes[*doc.Nodes[1].Mesh].Primitives[0].Material]
	if floor.AlphaMode != gltf.AlphaOpaque {
		t.Fatalf("floor alpha mode=%v", floor.AlphaMode)
	}
	if *doc.Nodes[3].Mesh != *doc.Nodes[4].Mesh {
		t.Fatalf("ceramic items should share a mesh")
	}
}

func TestNodeTransform_ZUpToYUp(t *testing.T) {
	e := plan.Element{
		Position: geom.Vec3{X: 1, Y: 2, Z: 3},
		Extent:   geom.Vec3{X: 4, Y: 5, Z: 6},
	}
	tr, q, s := nodeTransform(e)
	if tr != [3]float32{1, 3, -2} {
		t.Fatalf("translation=%v", tr)
	}
	if s != [3]float32{4, 6, 5} {
		t.Fatalf("scale=%v", s)
	}
	if q != [4]float32{0, 0, 0, 1} {
		t.Fatalf("rotation=%v", q)
	}

	// A quarter turn about Z (planner up) is a quarter turn about Y (glTF up).
	e.Rotation = geom.Vec3{Z: math.Pi / 2}
	_, q, _ = nodeTransform(e)
	h := float32(math.Sqrt2 / 2)
	if !near(q[0], 0) || !near(q[1], h) || !near(q[2], 0) || !near(q[3], h) {
		t.Fatalf("rotation=%v", q)
	}
}

func TestEulerXYZ_Composition(t *testing.T) {
	// Rotating X by pi then Z by pi equals a half turn about Y.
	x, y, z, w := eulerXYZ(math.Pi, 0, math.Pi)
	if math.Abs(x) > 1e-9 || math.Abs(math.Abs(y)-1) > 1e-9 || math.Abs(z) > 1e-9 || math.Abs(w) > 1e-9 {
		t.Fatalf("q=(%v,%v,%v,%v)", x, y, z, w)
	}
}

func TestDocument_RejectsNonFinite(t *testing.T) {
	cases := []plan.Element{
		{Kind: plan.KindWall, Label: "nan", Position: geom.Vec3{X: math.NaN()}},
		{Kind: plan.KindWall, Label: "huge", Position: geom.Vec3{X: 1}, Extent: geom.Vec3{X: 1e39, Y: 1, Z: 1}},
		{Kind: plan.KindFloor, Label: "far", Position: geom.Vec3{Y: -5e38}, Extent: geom.Vec3{X: 1, Y: 1, Z: 1}},
	}
	for _, e := range cases {
		s := &plan.Scene{Elements: []plan.Element{e}}
		_, err := Document(s)
		if err == nil || !strings.Contains(err.Error(), e.Label) {
			t.Fatalf("%s: err=%v", e.Label, err)
		}
	}
}

func TestRender_HugeFootprintFailsBeforeWriting(t *testing.T) {
	s, err := plan.New(plan.DefaultOptions(), nil).Generate(plan.Footprint{Width: 1e39, Depth: 8, Height: 3}, 700, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := filepath.Join(t.TempDir(), "x.glb")
	if err := New().Render(context.Background(), render.Job{Scene: s, OutPath: out}); err == nil || !strings.Contains(err.Error(), "float32 range") {
		t.Fatalf("err=%v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no file expected, stat err=%v", err)
	}
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Render(ctx, render.Job{Scene: &plan.Scene{}, OutPath: filepath.Join(t.TempDir(), "x.glb")})
	if err == nil {
		t.Fatalf("expected context error")
	}
}
