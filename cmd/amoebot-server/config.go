package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr             string
	DefaultWorldID   string
	WorldFile        string
	SnapshotDir      string
	CollisionWorkers int
	LogLevel         string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "AMOEBOT_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "world-id",
			envVarName:  "AMOEBOT_WORLD_ID",
			defaultVal:  "default",
			description: "default world ID for an initial world config",
			setter:      func(c *ServerConfig, v string) { c.DefaultWorldID = v },
		},
		{
			flagName:    "world-file",
			envVarName:  "AMOEBOT_WORLD_FILE",
			defaultVal:  "",
			description: "optional path to a JSON or YAML world config file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.WorldFile = v },
		},
		{
			flagName:    "snapshot-dir",
			envVarName:  "AMOEBOT_SNAPSHOT_DIR",
			defaultVal:  "./data",
			description: "Directory where world snapshots are stored",
			setter:      func(c *ServerConfig, v string) { c.SnapshotDir = v },
		},
		{
			flagName:    "collision-workers",
			envVarName:  "AMOEBOT_COLLISION_WORKERS",
			defaultVal:  "4",
			description: "Number of goroutines the collision sweep shards pairs across",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil && val > 0 {
					c.CollisionWorkers = val
				} else {
					log.Printf("Invalid value for collision-workers: %s, using default 4", v)
					c.CollisionWorkers = 4
				}
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "AMOEBOT_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// loadWorldConfigFromFile loads a world configuration from a JSON or YAML
// file, validating it against the registry.
func loadWorldConfigFromFile(path string, registry *amoebot.AlgorithmRegistry) (amoebot.WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return amoebot.WorldConfig{}, err
	}

	var cfg amoebot.WorldConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = amoebot.ParseWorldConfigYAML(data)
	default:
		cfg, err = amoebot.ParseWorldConfigJSON(data)
	}
	if err != nil {
		return amoebot.WorldConfig{}, err
	}

	if err := amoebot.ValidateWorldConfig(cfg, registry); err != nil {
		return amoebot.WorldConfig{}, err
	}
	return cfg, nil
}

// applyInitialWorld loads a world config from a file and creates the world
// under the given ID, wiring in the shared notification manager.
func applyInitialWorld(manager *amoebot.WorldManager, globalNotifierMgr *amoebot.NotificationManager, worldFile string, worldID amoebot.WorldID, collisionWorkers int) error {
	cfg, err := loadWorldConfigFromFile(worldFile, manager.Registry())
	if err != nil {
		return err
	}
	if cfg.CollisionWorkers == 0 {
		cfg.CollisionWorkers = collisionWorkers
	}

	world, err := manager.CreateWorld(worldID, cfg)
	if err != nil {
		return err
	}
	world.SetNotificationManager(globalNotifierMgr)
	return nil
}
