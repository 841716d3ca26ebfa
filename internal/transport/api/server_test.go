package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"housegen.ai/internal/build"
	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/projectdb"
	"housegen.ai/internal/protocol"
	"housegen.ai/internal/render"
	"housegen.ai/internal/render/glb"
	"housegen.ai/internal/tuning"
)

type brokenRenderer struct{}

func (brokenRenderer) Name() string { return "broken" }
func (brokenRenderer) Render(_ context.Context, _ render.Job) error {
	return errors.New("no output")
}

func newTestServer(t *testing.T, r render.Renderer) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	store, err := projectdb.OpenSQLite(filepath.Join(dir, "projects.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	quiet := log.New(io.Discard, "", 0)
	tune := tuning.Default()
	planner := plan.New(tune.PlanOptions(), nil)
	media := filepath.Join(dir, "media")
	svc := build.New(build.Config{MediaDir: media, DefaultSeed: tune.DefaultSeed}, planner, r, store, quiet)
	api := NewServer(Config{MediaDir: media, Defaults: tune.Defaults, DefaultSeed: tune.DefaultSeed}, store, svc, planner, quiet)

	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode
}

func TestProjects_CreateAndList(t *testing.T) {
	ts := newTestServer(t, glb.New())

	var empty []protocol.Project
	if code := doJSON(t, http.MethodGet, ts.URL+"/projects/", "", &empty); code != http.StatusOK || len(empty) != 0 {
		t.Fatalf("empty list: code=%d body=%v", code, empty)
	}

	var created protocol.Project
	code := doJSON(t, http.MethodPost, ts.URL+"/projects/create/", `{"budget":"1200.5","location_size":50}`, &created)
	if code != http.StatusCreated {
		t.Fatalf("create code=%d", code)
	}
	if created.ID == 0 || created.Budget != 120050 || created.LocationSize != 50 {
		t.Fatalf("created=%+v", created)
	}

	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/projects", `{"budget":300,"location_size":12}`, nil); code != http.StatusCreated {
		t.Fatalf("v1 create code=%d", code)
	}

	var raw []map[string]any
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/projects", "", &raw); code != http.StatusOK {
		t.Fatalf("list code=%d", code)
	}
	if len(raw) != 2 || raw[0]["budget"] != "1200.50" || raw[1]["budget"] != "300.00" {
		t.Fatalf("list=%v", raw)
	}
}

func TestProjects_CreateValidation(t *testing.T) {
	ts := newTestServer(t, glb.New())
	cases := []struct {
		body  string
		code  string
		field string
	}{
		{`{"budget":"lots","location_size":50}`, protocol.ErrBadRequest, "budget"},
		{`{"budget":"10.001","location_size":50}`, protocol.ErrBadRequest, "budget"},
		{`{"budget":"10","location_size":0}`, protocol.ErrBadRequest, "location_size"},
		{`{"budget":"-1","location_size":5}`, protocol.ErrInvalidBudget, "budget"},
		{`not json`, protocol.ErrBadRequest, "non_field_errors"},
	}
	for _, c := range cases {
		var er protocol.ErrorResponse
		status := doJSON(t, http.MethodPost, ts.URL+"/projects/create/", c.body, &er)
		if status != http.StatusBadRequest || er.Code != c.code {
			t.Fatalf("%s: status=%d resp=%+v", c.body, status, er)
		}
		if _, ok := er.Fields[c.field]; !ok {
			t.Fatalf("%s: fields=%v missing %q", c.body, er.Fields, c.field)
		}
	}
}

func TestProjects_MethodAndPathChecks(t *testing.T) {
	ts := newTestServer(t, glb.New())
	if code := doJSON(t, http.MethodGet, ts.URL+"/projects/create/", "", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET create code=%d", code)
	}
	if code := doJSON(t, http.MethodDelete, ts.URL+"/v1/projects", "", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE code=%d", code)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/projects/7", "", nil); code != http.StatusNotFound {
		t.Fatalf("unknown path code=%d", code)
	}
}

func TestGenerate_DefaultsAndMedia(t *testing.T) {
	ts := newTestServer(t, glb.New())

	var resp protocol.GenerateResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/generate/", "", &resp); code != http.StatusOK {
		t.Fatalf("generate code=%d", code)
	}
	if !strings.HasPrefix(resp.ModelURL, "/media/") || resp.BuildID == 0 {
		t.Fatalf("resp=%+v", resp)
	}
	// Default budget 5000 plans the five-room program.
	if len(resp.Rooms) != 5 {
		t.Fatalf("rooms=%v", resp.Rooms)
	}

	model, err := http.Get(ts.URL + resp.ModelURL)
	if err != nil {
		t.Fatalf("GET model: %v", err)
	}
	defer model.Body.Close()
	head := make([]byte, 4)
	if _, err := io.ReadFull(model.Body, head); err != nil || model.StatusCode != http.StatusOK {
		t.Fatalf("model status=%d err=%v", model.StatusCode, err)
	}
	if string(head) != "glTF" {
		t.Fatalf("model magic=%q", head)
	}

	var builds []protocol.Build
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/builds", "", &builds); code != http.StatusOK || len(builds) != 1 {
		t.Fatalf("builds code=%d len=%d", code, len(builds))
	}
	b := builds[0]
	if b.ID != resp.BuildID || b.Width != 5 || b.Depth != 5 || b.Height != 3 || b.LocationSize != 50 || b.Budget != 500000 {
		t.Fatalf("build=%+v", b)
	}
}

func TestGenerate_QueryParameters(t *testing.T) {
	ts := newTestServer(t, glb.New())

	url := ts.URL + "/v1/models/generate?width=10&length=8&height=2.5&location_size=80&budget=700&seed=42"
	var a, b protocol.GenerateResponse
	if code := doJSON(t, http.MethodGet, url, "", &a); code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	if code := doJSON(t, http.MethodGet, url, "", &b); code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	want := []plan.RoomType{plan.Bedroom, plan.Bathroom, plan.Kitchen}
	if len(a.Rooms) != len(want) {
		t.Fatalf("rooms=%v", a.Rooms)
	}
	for i := range want {
		if a.Rooms[i] != want[i] {
			t.Fatalf("rooms=%v want %v", a.Rooms, want)
		}
	}
	if a.Seed != 42 || a.Elements != b.Elements || a.Windows != b.Windows || a.ModelURL == b.ModelURL {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func TestGenerate_FromProject(t *testing.T) {
	ts := newTestServer(t, glb.New())
	var p protocol.Project
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/projects", `{"budget":"400","location_size":30}`, &p); code != http.StatusCreated {
		t.Fatalf("create code=%d", code)
	}
	var resp protocol.GenerateResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/generate/?project_id="+strconv.FormatInt(p.ID, 10), "", &resp); code != http.StatusOK {
		t.Fatalf("generate code=%d", code)
	}
	if len(resp.Rooms) != 2 {
		t.Fatalf("budget 400 should give two rooms, got %v", resp.Rooms)
	}
	var builds []protocol.Build
	doJSON(t, http.MethodGet, ts.URL+"/v1/builds?limit=1", "", &builds)
	if len(builds) != 1 || builds[0].ProjectID != p.ID || builds[0].LocationSize != 30 {
		t.Fatalf("builds=%+v", builds)
	}

	var er protocol.ErrorResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/generate/?project_id=999", "", &er); code != http.StatusNotFound || er.Code != protocol.ErrNotFound {
		t.Fatalf("missing project: code=%d resp=%+v", code, er)
	}

	id := strconv.FormatInt(p.ID, 10)
	for _, field := range []string{"budget", "location_size"} {
		var er protocol.ErrorResponse
		code := doJSON(t, http.MethodGet, ts.URL+"/generate/?project_id="+id+"&"+field+"=9000", "", &er)
		if code != http.StatusBadRequest || er.Code != protocol.ErrBadRequest || er.Fields[field] == "" {
			t.Fatalf("%s with project_id: code=%d resp=%+v", field, code, er)
		}
	}
	doJSON(t, http.MethodGet, ts.URL+"/v1/builds?limit=5", "", &builds)
	if len(builds) != 1 {
		t.Fatalf("rejected requests must not build: %d builds", len(builds))
	}
}

func TestGenerate_Errors(t *testing.T) {
	ts := newTestServer(t, glb.New())
	cases := []struct {
		query string
		code  string
	}{
		{"width=abc", protocol.ErrBadRequest},
		{"budget=1.234", protocol.ErrBadRequest},
		{"seed=x", protocol.ErrBadRequest},
		{"width=0", protocol.ErrInvalidDimensions},
		{"height=-3", protocol.ErrInvalidDimensions},
		{"location_size=0", protocol.ErrInvalidDimensions},
		{"budget=-10", protocol.ErrInvalidBudget},
	}
	for _, c := range cases {
		var er protocol.ErrorResponse
		status := doJSON(t, http.MethodGet, ts.URL+"/generate/?"+c.query, "", &er)
		if status != http.StatusBadRequest || er.Code != c.code {
			t.Fatalf("%s: status=%d resp=%+v", c.query, status, er)
		}
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/generate/", "", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("POST generate code=%d", code)
	}
}

func TestGenerate_RenderFailure(t *testing.T) {
	ts := newTestServer(t, brokenRenderer{})
	var er protocol.ErrorResponse
	status := doJSON(t, http.MethodGet, ts.URL+"/generate/", "", &er)
	if status != http.StatusInternalServerError || er.Code != protocol.ErrRenderFailed {
		t.Fatalf("status=%d resp=%+v", status, er)
	}
	if er.Error != "Model file was not generated" {
		t.Fatalf("error=%q", er.Error)
	}
	var builds []protocol.Build
	doJSON(t, http.MethodGet, ts.URL+"/v1/builds", "", &builds)
	if len(builds) != 0 {
		t.Fatalf("failed build recorded: %+v", builds)
	}
}

func TestPlan_ReturnsSceneGraph(t *testing.T) {
	ts := newTestServer(t, glb.New())
	var a, b plan.Scene
	body := `{"width":10,"depth":8,"height":2.5,"budget":"700","seed":42}`
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/plan", body, &a); code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	doJSON(t, http.MethodPost, ts.URL+"/v1/plan", body, &b)
	if a.Seed != 42 || len(a.Rooms) != 3 || len(a.Elements) == 0 {
		t.Fatalf("scene=%+v", a)
	}
	if len(a.Elements) != len(b.Elements) || a.Elements[len(a.Elements)-1] != b.Elements[len(b.Elements)-1] {
		t.Fatalf("same seed produced different scenes")
	}

	var er protocol.ErrorResponse
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/plan", `{"width":0,"depth":8,"height":2.5,"budget":1}`, &er); code != http.StatusBadRequest || er.Code != protocol.ErrInvalidDimensions {
		t.Fatalf("code=%d resp=%+v", code, er)
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/plan", `{"width":10,"depth":8,"height":2.5,"budget":1,"protocol_version":"0.1"}`, &er); code != http.StatusBadRequest || er.Fields["protocol_version"] == "" {
		t.Fatalf("code=%d resp=%+v", code, er)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/plan", "", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET plan code=%d", code)
	}
}

func TestPlan_DecodeErrorNamesField(t *testing.T) {
	ts := newTestServer(t, glb.New())
	var er protocol.ErrorResponse
	body := `{"width":10,"depth":8,"height":2.5,"budget":1,"seed":99999999999999999999}`
	code := doJSON(t, http.MethodPost, ts.URL+"/v1/plan", body, &er)
	if code != http.StatusBadRequest || er.Fields["seed"] == "" || er.Fields["budget"] != "" {
		t.Fatalf("code=%d resp=%+v", code, er)
	}
}

func TestBuilds_LimitValidation(t *testing.T) {
	ts := newTestServer(t, glb.New())
	var er protocol.ErrorResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/builds?limit=0", "", &er); code != http.StatusBadRequest || er.Fields["limit"] == "" {
		t.Fatalf("code=%d resp=%+v", code, er)
	}
}
