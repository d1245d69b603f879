package main

import (
	"github.com/swarmnet/amoebotsim/internal/amoebot"
	"github.com/swarmnet/amoebotsim/internal/amoebot/notifiers"
)

// Server represents the HTTP server for the amoebot world engine
type Server struct {
	manager           *amoebot.WorldManager
	globalNotifierMgr *amoebot.NotificationManager
	wsNotifier        *notifiers.WebSocketNotifier
	snapshotDir       string
	collisionWorkers  int
	logger            *Logger
}

// NewServer creates a new server instance. The websocket notifier is always
// registered so clients can stream round events from /ws.
func NewServer(registry *amoebot.AlgorithmRegistry, logger *Logger) (*Server, error) {
	globalMgr := amoebot.NewNotificationManagerWithLogger(logger)

	ws := notifiers.NewWebSocketNotifier("ws-broadcast")
	if err := globalMgr.RegisterNotifier(ws); err != nil {
		return nil, err
	}

	return &Server{
		manager:           amoebot.NewWorldManager(registry, logger),
		globalNotifierMgr: globalMgr,
		wsNotifier:        ws,
		logger:            logger,
	}, nil
}

// SetSnapshotDir sets the snapshot directory for all worlds
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// SetCollisionWorkers sets the default collision sweep parallelism for
// worlds created without an explicit value
func (s *Server) SetCollisionWorkers(n int) {
	s.collisionWorkers = n
}

// Close shuts down the notifier pipeline
func (s *Server) Close() error {
	for _, id := range s.manager.ListWorlds() {
		if world, ok := s.manager.GetWorld(id); ok {
			world.Stop()
		}
	}
	return s.globalNotifierMgr.Close()
}
