package protocol

import "housegen.ai/internal/layout/plan"

// POST /v1/projects
type ProjectRequest struct {
	Budget       Cents   `json:"budget"`
	LocationSize float64 `json:"location_size"`
}

type Project struct {
	ID           int64   `json:"id"`
	Budget       Cents   `json:"budget"`
	LocationSize float64 `json:"location_size"`
	CreatedAt    string  `json:"created_at"`
}

// PLAN (client -> server); also the body of POST /v1/plan.
type PlanRequest struct {
	Type            string  `json:"type,omitempty"`
	ProtocolVersion string  `json:"protocol_version,omitempty"`
	Width           float64 `json:"width"`
	Depth           float64 `json:"depth"`
	Height          float64 `json:"height"`
	LocationSize    float64 `json:"location_size,omitempty"`
	Budget          Cents   `json:"budget"`
	Seed            *int64  `json:"seed,omitempty"`
}

func (r PlanRequest) Footprint() plan.Footprint {
	return plan.Footprint{Width: r.Width, Depth: r.Depth, Height: r.Height}
}

// SCENE (server -> client): everything but the elements, which follow one
// ELEMENT message each.
type SceneMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Seed            int64          `json:"seed"`
	Footprint       plan.Footprint `json:"footprint"`
	Budget          Cents          `json:"budget"`
	Rooms           []plan.Room    `json:"rooms"`
	Windows         []plan.Window  `json:"windows"`
	ElementCount    int            `json:"element_count"`
	Overlaps        []plan.Overlap `json:"overlaps,omitempty"`
}

type ElementMsg struct {
	Type    string       `json:"type"`
	Index   int          `json:"index"`
	Element plan.Element `json:"element"`
}

type DoneMsg struct {
	Type     string `json:"type"`
	Elements int    `json:"elements"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GET /v1/models/generate
type GenerateResponse struct {
	ModelURL string          `json:"model_url"`
	BuildID  int64           `json:"build_id"`
	Seed     int64           `json:"seed"`
	Rooms    []plan.RoomType `json:"rooms"`
	Elements int             `json:"elements"`
	Windows  int             `json:"windows"`
	Overlaps []plan.Overlap  `json:"overlaps,omitempty"`
}

// GET /v1/builds
type Build struct {
	ID           int64   `json:"id"`
	ProjectID    int64   `json:"project_id,omitempty"`
	Width        float64 `json:"width"`
	Depth        float64 `json:"depth"`
	Height       float64 `json:"height"`
	LocationSize float64 `json:"location_size"`
	Budget       Cents   `json:"budget"`
	Seed         int64   `json:"seed"`
	Rooms        int     `json:"rooms"`
	Elements     int     `json:"elements"`
	Windows      int     `json:"windows"`
	Renderer     string  `json:"renderer"`
	ModelPath    string  `json:"model_path"`
	ScenePath    string  `json:"scene_path"`
	CreatedAt    string  `json:"created_at"`
}

// POST /v1/plan
type PlanResponse struct {
	*plan.Scene
	Overlaps []plan.Overlap `json:"overlaps,omitempty"`
}
