package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"housegen.ai/internal/layout/geom"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/render"
)

type Tuning struct {
	DefaultSeed int64 `yaml:"default_seed" json:"default_seed"`

	Planner  Planner  `yaml:"planner" json:"planner"`
	Render   Render   `yaml:"render" json:"render"`
	Defaults Defaults `yaml:"request_defaults" json:"request_defaults"`
}

type Planner struct {
	WallThickness     float64    `yaml:"wall_thickness" json:"wall_thickness"`
	FloorThickness    float64    `yaml:"floor_thickness" json:"floor_thickness"`
	Inset             float64    `yaml:"inset" json:"inset"`
	MaxWindowsPerWall int        `yaml:"max_windows_per_wall" json:"max_windows_per_wall"`
	WindowAttempts    int        `yaml:"window_attempts" json:"window_attempts"`
	MinWindowGap      float64    `yaml:"min_window_gap" json:"min_window_gap"`
	WindowSize        [3]float64 `yaml:"window_size" json:"window_size"`
	DoorSize          [3]float64 `yaml:"door_size" json:"door_size"`
	FrontDoorOutset   float64    `yaml:"front_door_outset" json:"front_door_outset"`
}

type Render struct {
	// Backend is "glb" (built in) or "blender" (external host application).
	Backend       string `yaml:"backend" json:"backend"`
	BlenderBin    string `yaml:"blender_bin" json:"blender_bin"`
	BlenderScript string `yaml:"blender_script" json:"blender_script"`
	ModelName     string `yaml:"model_name" json:"model_name"`
}

// Defaults are applied to generate requests that omit a parameter.
type Defaults struct {
	Width        float64 `yaml:"width" json:"width"`
	Length       float64 `yaml:"length" json:"length"`
	Height       float64 `yaml:"height" json:"height"`
	LocationSize float64 `yaml:"location_size" json:"location_size"`
	Budget       string  `yaml:"budget" json:"budget"`
}

func Default() Tuning {
	o := plan.DefaultOptions()
	return Tuning{
		DefaultSeed: 1337,
		Planner: Planner{
			WallThickness:     o.WallThickness,
			FloorThickness:    o.FloorThickness,
			Inset:             o.Inset,
			MaxWindowsPerWall: o.MaxWindowsPerWall,
			WindowAttempts:    o.WindowAttempts,
			MinWindowGap:      o.MinWindowGap,
			WindowSize:        [3]float64{o.WindowSize.X, o.WindowSize.Y, o.WindowSize.Z},
			DoorSize:          [3]float64{o.DoorSize.X, o.DoorSize.Y, o.DoorSize.Z},
			FrontDoorOutset:   o.FrontDoorOutset,
		},
		Render: Render{
			Backend:       render.BackendGLB,
			BlenderBin:    "blender",
			BlenderScript: "blender_scripts/generate_model.py",
			ModelName:     "room_model.glb",
		},
		Defaults: Defaults{
			Width:        5,
			Length:       5,
			Height:       3,
			LocationSize: 50,
			Budget:       "5000",
		},
	}
}

// Load reads a tuning file on top of Default(); keys it omits keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Render.Backend = strings.ToLower(strings.TrimSpace(t.Render.Backend))
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if err := t.PlanOptions().Validate(); err != nil {
		return err
	}
	if !render.KnownBackend(t.Render.Backend) {
		return fmt.Errorf("unsupported render.backend: %q", t.Render.Backend)
	}
	if t.Render.Backend == render.BackendBlender {
		if strings.TrimSpace(t.Render.BlenderBin) == "" || strings.TrimSpace(t.Render.BlenderScript) == "" {
			return fmt.Errorf("render.blender_bin and render.blender_script are required for the blender backend")
		}
	}
	if strings.TrimSpace(t.Render.ModelName) == "" {
		return fmt.Errorf("render.model_name is empty")
	}
	d := t.Defaults
	if d.Width <= 0 || d.Length <= 0 || d.Height <= 0 || d.LocationSize <= 0 {
		return fmt.Errorf("request_defaults: dimensions must be positive")
	}
	if _, err := protocol.ParseCents(d.Budget); err != nil {
		return fmt.Errorf("request_defaults.budget: %w", err)
	}
	return nil
}

func (t Tuning) PlanOptions() plan.Options {
	p := t.Planner
	return plan.Options{
		WallThickness:     p.WallThickness,
		FloorThickness:    p.FloorThickness,
		Inset:             p.Inset,
		MaxWindowsPerWall: p.MaxWindowsPerWall,
		WindowAttempts:    p.WindowAttempts,
		MinWindowGap:      p.MinWindowGap,
		WindowSize:        geom.Vec3{X: p.WindowSize[0], Y: p.WindowSize[1], Z: p.WindowSize[2]},
		DoorSize:          geom.Vec3{X: p.DoorSize[0], Y: p.DoorSize[1], Z: p.DoorSize[2]},
		FrontDoorOutset:   p.FrontDoorOutset,
	}
}
