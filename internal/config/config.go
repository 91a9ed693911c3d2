// Package config loads tool settings from espalier.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "espalier.yaml"

// Config holds the settings shared by the CLI commands.
type Config struct {
	// Model is the default model name; empty means recommend one.
	Model string `yaml:"model"`
	// OllamaURL is the model server base URL.
	OllamaURL string `yaml:"ollama_url"`
	// HistoryDir is where conversation documents are stored.
	HistoryDir string `yaml:"history_dir"`
	// StartNode overrides where conversations begin.
	StartNode string `yaml:"start_node"`
	// MaxRetries bounds model attempts per turn.
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the pause between model attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Redis, when set, switches persistence to a shared Redis.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the optional Redis document store.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the built-in settings used when no file exists.
func Default() Config {
	return Config{
		HistoryDir: "conversation_history",
	}
}

// Load reads the config file at path. A missing file at the default
// path is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
