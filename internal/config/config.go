// Package config loads daemon configuration from flags, an optional
// YAML file, and environment variables. Precedence: env > file > flag.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the callerd configuration.
type Config struct {
	// BackendURL is the voice backend API root.
	BackendURL string `yaml:"backend_url"`

	// PushGatewayURL is the notification gateway websocket endpoint.
	PushGatewayURL string `yaml:"push_gateway_url"`

	// APIAddr is the local HTTP API listen address.
	APIAddr string `yaml:"api_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// DataDir holds the profile and file-backed history.
	DataDir string `yaml:"data_dir"`

	// HistoryStore selects the history backend: file, redis or memory.
	HistoryStore string `yaml:"history_store"`

	// RedisAddr is the Redis address for the redis history store.
	RedisAddr string `yaml:"redis_addr"`

	// RedisKey is the Redis list key for the call history.
	RedisKey string `yaml:"redis_key"`

	// BridgeNumber is the support desk number dialed by the bridge.
	BridgeNumber string `yaml:"bridge_number"`

	// PushReconnect is the gateway redial interval.
	PushReconnect time.Duration `yaml:"push_reconnect"`
}

// Load reads configuration from command line flags, an optional YAML
// file, and environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:    "https://voiceai.kasookoo.com",
		APIAddr:       "0.0.0.0:8080",
		LogLevel:      "info",
		DataDir:       defaultDataDir(),
		HistoryStore:  "file",
		RedisAddr:     "localhost:6379",
		PushReconnect: 5 * time.Second,
	}

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Voice backend API root")
	flag.StringVar(&cfg.PushGatewayURL, "push-gateway", cfg.PushGatewayURL, "Notification gateway websocket URL")
	flag.StringVar(&cfg.APIAddr, "api", cfg.APIAddr, "Local HTTP API listen address")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Data directory for profile and history")
	flag.StringVar(&cfg.HistoryStore, "history-store", cfg.HistoryStore, "History backend (file, redis, memory)")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the redis history store")
	flag.Parse()

	if env := os.Getenv("CONFIG"); env != "" {
		configPath = env
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables; they win over flags and file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("PUSH_GATEWAY_URL"); v != "" {
		c.PushGatewayURL = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		c.APIAddr = v
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("HISTORY_STORE"); v != "" {
		c.HistoryStore = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_KEY"); v != "" {
		c.RedisKey = v
	}
}

func (c *Config) validate() error {
	switch c.HistoryStore {
	case "file", "redis", "memory":
		return nil
	default:
		return fmt.Errorf("unknown history store %q", c.HistoryStore)
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ridecall"
	}
	return home + "/.ridecall"
}
