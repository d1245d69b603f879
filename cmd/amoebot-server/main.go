package main

import (
	"net/http"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
	"github.com/swarmnet/amoebotsim/internal/amoebot/algorithms"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	registry := amoebot.NewAlgorithmRegistry()
	if err := algorithms.RegisterBuiltins(registry); err != nil {
		logger.Fatalf("Failed to register built-in algorithms: %v", err)
	}

	srv, err := NewServer(registry, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	srv.SetSnapshotDir(cfg.SnapshotDir)
	srv.SetCollisionWorkers(cfg.CollisionWorkers)

	if cfg.WorldFile != "" {
		if err := applyInitialWorld(srv.manager, srv.globalNotifierMgr, cfg.WorldFile, amoebot.WorldID(cfg.DefaultWorldID), cfg.CollisionWorkers); err != nil {
			logger.Fatalf("Failed to load initial world from %s: %v", cfg.WorldFile, err)
		}
		logger.Infof("Initial world loaded: world_id=%s file=%s", cfg.DefaultWorldID, cfg.WorldFile)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/worlds", srv.handleListWorlds)
	mux.HandleFunc("/algorithms", srv.handleListAlgorithms)
	mux.HandleFunc("/world/", srv.handleWorldRoutes)
	mux.HandleFunc("/notifiers", srv.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", srv.handleNotifiersRoutes)
	mux.HandleFunc("/ws", srv.handleWebSocket)

	logger.Infof("amoebot-server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
