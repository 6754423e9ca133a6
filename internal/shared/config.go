package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Playlist PlaylistConfig `toml:"playlist"`
	Database DatabaseConfig `toml:"database"`
	History  HistoryConfig  `toml:"history"`
	Realtime RealtimeConfig `toml:"realtime"`
	Server   ServerConfig   `toml:"server"`
}

// CatalogConfig points at the three hymnal collections. Each value is a local path or an http(s) URL.
type CatalogConfig struct {
	Congregation string `toml:"congregation"`
	Children     string `toml:"children"`
	Loose        string `toml:"loose"`
	SearchLimit  int    `toml:"search_limit"`
}

// PlaylistConfig contains defaults for new lists.
type PlaylistConfig struct {
	Group             string `toml:"group"`
	RecencyWindowDays int    `toml:"recency_window_days"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// HistoryConfig selects where saved lists live: "sqlite" or "realtime".
type HistoryConfig struct {
	Backend string `toml:"backend"`
}

// RealtimeConfig contains settings for the hosted realtime database.
type RealtimeConfig struct {
	URL            string  `toml:"url"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port pair the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
