package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default server knobs. The listen address matches what the desktop shell
// advertises to MCP clients.
const (
	DefaultListenAddr = "localhost:6767"
	DefaultDBFile     = "gitforge.db"
)

// Config represents application configuration
type Config struct {
	RepoPath   string `json:"repo_path"`
	ListenAddr string `json:"listen_addr"`
	DBFile     string `json:"db_file"`
	LogLevel   string `json:"log_level"` // debug, info, warn, error, none
	LogPath    string `json:"log_path,omitempty"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		RepoPath:   ".",
		ListenAddr: DefaultListenAddr,
		DBFile:     DefaultDBFile,
		LogLevel:   "info",
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "gitforge.json")
	}
	return filepath.Join(configDir, "gitforge", "config.json")
}

// Load reads configuration from the given path. A missing file is not an
// error; defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.DBFile == "" {
		cfg.DBFile = DefaultDBFile
	}
	if cfg.RepoPath == "" {
		cfg.RepoPath = "."
	}

	return cfg, nil
}

// Save writes configuration to the given path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DBPath returns the absolute store location for the configured repository.
func (c *Config) DBPath() string {
	return filepath.Join(c.RepoPath, c.DBFile)
}
