// Package config loads settings shared by the prefs-cache binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

type Config struct {
	// SocketPath is where prefs-server listens and prefs-mcp connects.
	SocketPath string `yaml:"socket_path" env:"PREFS_CACHE_SOCK"`
	// DBPath is the durable store file.
	DBPath string `yaml:"db_path" env:"PREFS_CACHE_DB"`
	// Backend selects the durable store: "bolt" or "sqlite".
	Backend string `yaml:"backend" env:"PREFS_CACHE_BACKEND"`
	// Domain names the bolt bucket or sqlite domain that RemoveAll clears.
	Domain string `yaml:"domain" env:"PREFS_CACHE_DOMAIN"`
	// CacheSize bounds the in-memory cache.
	CacheSize int `yaml:"cache_size" env:"PREFS_CACHE_SIZE"`
	// DeferSync skips the per-commit fsync of the bolt backend; durability
	// then comes from the explicit flush after every write.
	DeferSync bool `yaml:"defer_sync" env:"PREFS_CACHE_DEFER_SYNC"`
	LogPath   string `yaml:"log_path" env:"PREFS_CACHE_LOG"`
}

// Load reads the YAML file at path when path is non-empty, then applies
// environment overrides, then fills defaults for anything still unset.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	dir := defaultDir()
	if cfg.SocketPath == "" {
		cfg.SocketPath = filepath.Join(dir, "prefs.sock")
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendBolt
	}
	if cfg.DBPath == "" {
		name := "prefs.bbolt"
		if cfg.Backend == BackendSQLite {
			name = "prefs.sqlite"
		}
		cfg.DBPath = filepath.Join(dir, name)
	}
	if cfg.Domain == "" {
		cfg.Domain = "defaults"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendBolt, BackendSQLite:
		return nil
	}
	return fmt.Errorf("invalid backend %q (want %q or %q)", c.Backend, BackendBolt, BackendSQLite)
}

func defaultDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "prefs-cache")
}
