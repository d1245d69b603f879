package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
	"github.com/swarmnet/amoebotsim/internal/amoebot/algorithms"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := amoebot.NewAlgorithmRegistry()
	if err := algorithms.RegisterBuiltins(registry); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	srv, err := NewServer(registry, NewLogger("error"))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func walkerWorldJSON(t *testing.T) []byte {
	t.Helper()
	cfg := amoebot.WorldConfig{
		Name: "test",
		Particles: []amoebot.ParticleConfig{
			{ID: "runner", Head: amoebot.Node{X: 0, Y: 0}, Algorithm: "walker"},
		},
	}
	data, err := amoebot.EncodeWorldConfigJSON(cfg)
	if err != nil {
		t.Fatalf("EncodeWorldConfigJSON failed: %v", err)
	}
	return data
}

func createWorld(t *testing.T, srv *Server, worldID string, body []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/world/"+worldID+"/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create world: status %d: %s", w.Code, w.Body.String())
	}
}

func TestExtractWorldID(t *testing.T) {
	tests := []struct {
		path string
		id   amoebot.WorldID
		rest string
	}{
		{"/world/w1/step", "w1", "/step"},
		{"/world/w1", "w1", ""},
		{"/world/", "", ""},
		{"/other/w1/step", "", ""},
	}
	for _, tt := range tests {
		id, rest := extractWorldID(tt.path)
		if id != tt.id || rest != tt.rest {
			t.Errorf("extractWorldID(%q) = (%q, %q), want (%q, %q)", tt.path, id, rest, tt.id, tt.rest)
		}
	}
}

func TestServer_HandleCreateWorldAndStatus(t *testing.T) {
	srv := newTestServer(t)
	createWorld(t, srv, "w1", walkerWorldJSON(t))

	req := httptest.NewRequest(http.MethodGet, "/world/w1/status", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d: %s", w.Code, w.Body.String())
	}
	var status map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid status json: %v", err)
	}
	if status["round"] != float64(0) || status["scrubbed"] != false || status["running"] != false {
		t.Errorf("unexpected status: %v", status)
	}
	if _, halted := status["halted"]; halted {
		t.Error("fresh world should not report a halt")
	}
}

func TestServer_HandleCreateWorldRejectsBadConfig(t *testing.T) {
	srv := newTestServer(t)
	cfg := amoebot.WorldConfig{
		Particles: []amoebot.ParticleConfig{
			{ID: "x", Head: amoebot.Node{X: 0, Y: 0}, Algorithm: "no-such-algorithm"},
		},
	}
	body, _ := amoebot.EncodeWorldConfigJSON(cfg)
	req := httptest.NewRequest(http.MethodPost, "/world/bad/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_HandleStepAndParticles(t *testing.T) {
	srv := newTestServer(t)
	createWorld(t, srv, "w1", walkerWorldJSON(t))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/world/w1/step", nil)
		w := httptest.NewRecorder()
		srv.handleWorldRoutes(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("step %d: %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/world/w1/particles", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	var states []amoebot.ParticleState
	if err := json.Unmarshal(w.Body.Bytes(), &states); err != nil {
		t.Fatalf("invalid particles json: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("got %d particles", len(states))
	}
	if states[0].Head != (amoebot.Node{X: 1, Y: 0}) || states[0].Expanded {
		t.Errorf("after two rounds the walker should sit contracted at (1,0), got %+v", states[0])
	}

	// The round query parameter scrubs the view without moving the marker.
	req = httptest.NewRequest(http.MethodGet, "/world/w1/particles?round=1", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &states); err != nil {
		t.Fatalf("invalid particles json: %v", err)
	}
	if !states[0].Expanded {
		t.Errorf("round 1 view should show the walker expanded, got %+v", states[0])
	}
}

func TestServer_HandleStepConflict(t *testing.T) {
	srv := newTestServer(t)
	cfg := amoebot.WorldConfig{
		Particles: []amoebot.ParticleConfig{
			{ID: "a", Head: amoebot.Node{X: 0, Y: 0}, Algorithm: "idle"},
			{ID: "b", Head: amoebot.Node{X: 5, Y: 5}, Algorithm: "idle"},
		},
	}
	body, _ := amoebot.EncodeWorldConfigJSON(cfg)
	createWorld(t, srv, "torn", body)

	req := httptest.NewRequest(http.MethodPost, "/world/torn/step", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("a disconnected world should abort with 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_HandleTimeline(t *testing.T) {
	srv := newTestServer(t)
	createWorld(t, srv, "w1", walkerWorldJSON(t))
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/world/w1/step", nil)
		srv.handleWorldRoutes(httptest.NewRecorder(), req)
	}

	post := func(body string) map[string]any {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/world/w1/timeline", bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		srv.handleWorldRoutes(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("timeline: %d: %s", w.Code, w.Body.String())
		}
		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid timeline json: %v", err)
		}
		return resp
	}

	resp := post(`{"op":"back"}`)
	if resp["marker"] != float64(3) || resp["scrubbed"] != true {
		t.Errorf("after back: %v", resp)
	}
	resp = post(`{"op":"jump","round":1}`)
	if resp["marker"] != float64(1) {
		t.Errorf("after jump: %v", resp)
	}
	resp = post(`{"op":"continue"}`)
	if resp["round"] != float64(1) || resp["scrubbed"] != false {
		t.Errorf("after continue: %v", resp)
	}

	req := httptest.NewRequest(http.MethodPost, "/world/w1/timeline", bytes.NewReader([]byte(`{"op":"warp"}`)))
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown op should 400, got %d", w.Code)
	}
}

func TestServer_HandleSnapshotSaveGetRestore(t *testing.T) {
	srv := newTestServer(t)
	srv.SetSnapshotDir(t.TempDir())
	createWorld(t, srv, "w1", walkerWorldJSON(t))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/world/w1/step", nil)
		srv.handleWorldRoutes(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodPost, "/world/w1/snapshot", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("save snapshot: %d: %s", w.Code, w.Body.String())
	}
	var saved map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("invalid save response: %v", err)
	}
	if saved["status"] != "ok" || saved["path"] == "" {
		t.Errorf("unexpected save response: %v", saved)
	}
	if _, err := os.Stat(saved["path"]); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/world/w1/snapshot", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get snapshot: %d: %s", w.Code, w.Body.String())
	}
	var snapshot amoebot.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid snapshot json: %v", err)
	}
	if snapshot.Round != 3 || len(snapshot.Particles) != 1 {
		t.Errorf("unexpected snapshot: round=%d particles=%d", snapshot.Round, len(snapshot.Particles))
	}

	req = httptest.NewRequest(http.MethodPost, "/world/w2/restore", bytes.NewReader(w.Body.Bytes()))
	w2 := httptest.NewRecorder()
	srv.handleWorldRoutes(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("restore: %d: %s", w2.Code, w2.Body.String())
	}
	world, exists := srv.manager.GetWorld("w2")
	if !exists {
		t.Fatal("restored world missing")
	}
	if world.Round() != 3 {
		t.Errorf("restored round = %d, want 3", world.Round())
	}
	if err := world.Step(); err != nil {
		t.Errorf("restored world cannot step: %v", err)
	}
}

func TestServer_HandleDeleteWorld(t *testing.T) {
	srv := newTestServer(t)
	createWorld(t, srv, "w1", walkerWorldJSON(t))

	req := httptest.NewRequest(http.MethodDelete, "/world/w1", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/world/w1", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleting twice should 404, got %d", w.Code)
	}
}

func TestServer_HandleNotifiers(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/notifiers", nil)
	w := httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	var listed struct {
		Notifiers []map[string]string `json:"notifiers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid notifiers json: %v", err)
	}
	if len(listed.Notifiers) != 1 || listed.Notifiers[0]["id"] != "ws-broadcast" {
		t.Errorf("expected only the websocket broadcaster, got %v", listed.Notifiers)
	}

	body := `{"type":"webhook","id":"hook","config":{"url":"http://localhost:9/sink","headers":{"X-Token":"s"}}}`
	req = httptest.NewRequest(http.MethodPost, "/notifiers", bytes.NewReader([]byte(body)))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("register: %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/notifiers", bytes.NewReader([]byte(`{"type":"carrier-pigeon","id":"p"}`)))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown type should 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/notifiers/hook", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("unregister: %d: %s", w.Code, w.Body.String())
	}
}
