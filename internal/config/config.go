// Package config resolves where the catalog database lives. Resolution
// order: explicit config file, HOARD_DB environment variable (including
// values loaded from a .env file in the working directory), then the
// default location under the user's home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvDBPath is the environment variable naming the catalog database file.
const EnvDBPath = "HOARD_DB"

// Config holds the resolved runtime settings for a scan.
type Config struct {
	// DBPath is the SQLite catalog file.
	DBPath string `yaml:"db_path"`
	// Exclude lists additional glob patterns applied on top of the
	// built-in exclusions.
	Exclude []string `yaml:"exclude"`
}

// Load resolves the configuration. configFile may be empty, in which
// case the environment and defaults decide.
func Load(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configFile, err)
		}
	}

	if cfg.DBPath == "" {
		// Ignore a missing .env; it is optional.
		_ = godotenv.Load()
		cfg.DBPath = os.Getenv(EnvDBPath)
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".hoard", "catalog.db")
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	return cfg, nil
}

// expandHome resolves a leading ~/ against the current user's home.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
