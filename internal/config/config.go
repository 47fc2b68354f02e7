package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the node configuration
type Config struct {
	Node       NodeConfig    `yaml:"node"`
	Server     ServerConfig  `yaml:"server"`
	Storage    StorageConfig `yaml:"storage"`
	Validators []string      `yaml:"validators"`
	Peers      []string      `yaml:"peers"`
	Sync       SyncConfig    `yaml:"sync"`
	Log        LogConfig     `yaml:"log"`
}

// NodeConfig identifies the ledger this node serves
type NodeConfig struct {
	Name string `yaml:"name"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig selects where snapshots are persisted
type StorageConfig struct {
	Backend string `yaml:"backend"` // "pebble" or "file"
	Path    string `yaml:"path"`
}

// SyncConfig represents the replication configuration
type SyncConfig struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"` // seconds between rounds (default: 10)
}

// LogConfig represents the logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			Name: "node",
		},
		Server: ServerConfig{
			Port: 3001,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Backend: "pebble",
			Path:    "./data",
		},
		Sync: SyncConfig{
			Interval: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file and environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from YAML file if it exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	cfg.loadEnv()

	return cfg, nil
}

// SyncInterval returns the time between replication rounds
func (c *Config) SyncInterval() time.Duration {
	if c.Sync.Interval <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Sync.Interval) * time.Second
}

// Addr returns the address the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) loadEnv() {
	if name := os.Getenv("NODE_NAME"); name != "" {
		c.Node.Name = name
	}

	// Server config
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// Storage config
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv("STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}

	// Comma-separated lists
	if validators := os.Getenv("VALIDATORS"); validators != "" {
		c.Validators = splitList(validators)
	}
	if peers := os.Getenv("PEERS"); peers != "" {
		c.Peers = splitList(peers)
	}

	// Sync config
	if enabled := os.Getenv("SYNC_ENABLED"); enabled != "" {
		c.Sync.Enabled = enabled == "true" || enabled == "1"
	}
	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		if i, err := strconv.Atoi(interval); err == nil {
			c.Sync.Interval = i
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
