package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
	amoebotnotifiers "github.com/swarmnet/amoebotsim/internal/amoebot/notifiers"
)

// extractWorldID extracts the world ID from a path like "/world/{worldID}/..."
// Returns the world ID and the remaining path, or empty string if not found
func extractWorldID(path string) (amoebot.WorldID, string) {
	if !strings.HasPrefix(path, "/world/") {
		return "", ""
	}

	rest := path[len("/world/"):]

	idx := strings.Index(rest, "/")
	if idx == -1 {
		// No more path segments, the whole thing is the world ID
		return amoebot.WorldID(rest), ""
	}

	worldID := amoebot.WorldID(rest[:idx])
	remainingPath := rest[idx:]
	return worldID, remainingPath
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /world/{worldID}/config
// Body: WorldConfig JSON
// Creates a new world with the given ID
func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/config", http.StatusBadRequest)
		return
	}

	var cfg amoebot.WorldConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid world config json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.CollisionWorkers == 0 {
		cfg.CollisionWorkers = s.collisionWorkers
	}

	world, err := s.manager.CreateWorld(worldID, cfg)
	if err != nil {
		s.logger.Warnf("Failed to create world: world_id=%s error=%v", worldID, err)
		http.Error(w, "cannot create world: "+err.Error(), http.StatusBadRequest)
		return
	}
	world.SetNotificationManager(s.globalNotifierMgr)

	s.logger.Infof("World created: world_id=%s name=%s particles=%d", worldID, cfg.Name, len(cfg.Particles))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world created"))
}

// POST /world/{worldID}/step
// Manually trigger a single round (useful when auto-running is disabled)
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if err := world.Step(); err != nil {
		s.logger.Warnf("Round aborted: world_id=%s error=%v", worldID, err)
		http.Error(w, "round aborted: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"round": world.Round()})
}

// POST /world/{worldID}/start
// Start the world auto-running with the specified interval (in milliseconds)
// Query param: interval (default: 1000ms)
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	interval := 1000 * time.Millisecond
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}

	world.Run(interval)
	s.logger.Infof("World started: world_id=%s interval=%v", worldID, interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world started"))
}

// POST /world/{worldID}/stop
// Stop the world auto-running
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	world.Stop()
	s.logger.Infof("World stopped: world_id=%s", worldID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world stopped"))
}

// GET /world/{worldID}/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	status := map[string]any{
		"round":    world.Round(),
		"marker":   world.MarkedRound(),
		"scrubbed": world.IsScrubbed(),
		"running":  world.IsRunning(),
	}
	if err := world.Halted(); err != nil {
		status["halted"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /world/{worldID}/particles
// Optional query param round=N returns the state visible at that round
func (s *Server) handleListParticles(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	var states []amoebot.ParticleState
	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		round, err := strconv.Atoi(roundStr)
		if err != nil {
			http.Error(w, "invalid round: must be an integer", http.StatusBadRequest)
			return
		}
		states = world.ParticleStatesAt(round)
	} else {
		states = world.ParticleStates()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(states); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /world/{worldID}/objects
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(world.ObjectStates()); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /world/{worldID}/timeline
// Body: { "op": "back" | "forward" | "jump" | "continue" | "cutoff", "round": N }
// Scrubs the world timeline without re-simulation
type timelineRequest struct {
	Op    string `json:"op"`
	Round int    `json:"round"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	var req timelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Op {
	case "back":
		world.StepBack()
	case "forward":
		world.StepForward()
	case "jump":
		world.JumpToRound(req.Round)
	case "continue":
		world.ContinueFromMarker()
	case "cutoff":
		world.CutOffAtMarker()
	default:
		http.Error(w, "unknown timeline op: "+req.Op, http.StatusBadRequest)
		return
	}

	s.logger.Debugf("Timeline op applied: world_id=%s op=%s marker=%d", worldID, req.Op, world.MarkedRound())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"marker":   world.MarkedRound(),
		"round":    world.Round(),
		"scrubbed": world.IsScrubbed(),
	})
}

// GET /worlds
// List all world IDs
func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	worldIDs := s.manager.ListWorlds()

	ids := make([]string, len(worldIDs))
	for i, id := range worldIDs {
		ids[i] = string(id)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"worlds": ids}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /algorithms
// List all registered algorithm names
func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"algorithms": s.manager.Registry().Names()}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// DELETE /world/{worldID}
func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	if err := s.manager.DeleteWorld(worldID); err != nil {
		s.logger.Warnf("Failed to delete world: world_id=%s error=%v", worldID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("World deleted: world_id=%s", worldID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world deleted"))
}

func (s *Server) snapshotPath(worldID amoebot.WorldID) string {
	return filepath.Join(s.snapshotDir, string(worldID)+".json")
}

// POST /world/{worldID}/snapshot
// Triggers a synchronous snapshot save
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	data, err := amoebot.EncodeSnapshotJSON(world.TakeSnapshot())
	if err != nil {
		s.logger.Errorf("Failed to encode snapshot: world_id=%s error=%v", worldID, err)
		http.Error(w, "failed to encode snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		http.Error(w, "failed to create snapshot dir: "+err.Error(), http.StatusInternalServerError)
		return
	}
	path := s.snapshotPath(worldID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Errorf("Failed to save snapshot: world_id=%s error=%v", worldID, err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debugf("Snapshot saved: world_id=%s path=%s", worldID, path)

	response := map[string]string{
		"status": "ok",
		"path":   path,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "cannot encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /world/{worldID}/snapshot
// Returns the raw snapshot JSON if it exists
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	if _, exists := s.manager.GetWorld(worldID); !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(s.snapshotPath(worldID))
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// POST /world/{worldID}/restore
// Body: Snapshot JSON
// Rebuilds a world with full history from a snapshot
func (s *Server) handleRestoreWorld(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/restore", http.StatusBadRequest)
		return
	}

	var snapshot amoebot.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		http.Error(w, "invalid snapshot json: "+err.Error(), http.StatusBadRequest)
		return
	}

	world, err := s.manager.RestoreWorld(worldID, snapshot)
	if err != nil {
		http.Error(w, "cannot restore world: "+err.Error(), http.StatusBadRequest)
		return
	}
	world.SetNotificationManager(s.globalNotifierMgr)

	s.logger.Infof("World restored: world_id=%s round=%d", worldID, world.Round())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world restored"))
}

// GET /ws
// Upgrades the connection and streams round events to the client
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	s.wsNotifier.RegisterClient(conn)

	// Read loop keeps the connection alive and detects client departure
	go func() {
		defer s.wsNotifier.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleWorldRoutes routes requests to world-specific handlers
// Handles paths like /world/{worldID}/config, /world/{worldID}/step, etc.
func (s *Server) handleWorldRoutes(w http.ResponseWriter, r *http.Request) {
	worldID, remainingPath := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "/config" && r.Method == http.MethodPost:
		s.handleCreateWorld(w, r)
	case remainingPath == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case remainingPath == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r)
	case remainingPath == "/status" && r.Method == http.MethodGet:
		s.handleStatus(w, r)
	case remainingPath == "/particles" && r.Method == http.MethodGet:
		s.handleListParticles(w, r)
	case remainingPath == "/objects" && r.Method == http.MethodGet:
		s.handleListObjects(w, r)
	case remainingPath == "/timeline" && r.Method == http.MethodPost:
		s.handleTimeline(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, r)
	case remainingPath == "/restore" && r.Method == http.MethodPost:
		s.handleRestoreWorld(w, r)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteWorld(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.globalNotifierMgr.ListNotifiers()

	notifiers := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.globalNotifierMgr.GetNotifier(id)
		if exists {
			notifiers = append(notifiers, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"notifiers": notifiers}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /notifiers
// Register a new notifier
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier amoebot.Notifier

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := amoebotnotifiers.NewWebhookNotifier(req.ID, url)

		// Set custom headers if provided
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}

		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}
