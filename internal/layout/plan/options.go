package plan

import (
	"fmt"

	"housegen.ai/internal/layout/geom"
)

// Options holds the geometric constants of the generator.
type Options struct {
	WallThickness     float64
	FloorThickness    float64
	Inset             float64
	MaxWindowsPerWall int
	WindowAttempts    int
	MinWindowGap      float64
	WindowSize        geom.Vec3
	DoorSize          geom.Vec3
	// FrontDoorOutset pushes the entrance door out of the front wall plane.
	FrontDoorOutset float64
}

func DefaultOptions() Options {
	return Options{
		WallThickness:     0.2,
		FloorThickness:    0.1,
		Inset:             2,
		MaxWindowsPerWall: 2,
		WindowAttempts:    10,
		MinWindowGap:      2,
		WindowSize:        geom.Vec3{X: 1.5, Y: 0.5, Z: 1.5},
		DoorSize:          geom.Vec3{X: 0.9, Y: 0.2, Z: 2},
		FrontDoorOutset:   0.05,
	}
}

func (o Options) Validate() error {
	switch {
	case o.WallThickness <= 0:
		return fmt.Errorf("wall_thickness must be > 0")
	case o.FloorThickness <= 0:
		return fmt.Errorf("floor_thickness must be > 0")
	case o.Inset < 0:
		return fmt.Errorf("inset must be >= 0")
	case o.MaxWindowsPerWall < 0:
		return fmt.Errorf("max_windows_per_wall must be >= 0")
	case o.WindowAttempts <= 0:
		return fmt.Errorf("window_attempts must be > 0")
	case o.MinWindowGap < 0:
		return fmt.Errorf("min_window_gap must be >= 0")
	case o.WindowSize.X <= 0 || o.WindowSize.Y <= 0 || o.WindowSize.Z <= 0:
		return fmt.Errorf("window_size must be positive")
	case o.DoorSize.X <= 0 || o.DoorSize.Y <= 0 || o.DoorSize.Z <= 0:
		return fmt.Errorf("door_size must be positive")
	}
	return nil
}
