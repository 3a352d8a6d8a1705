// Package config loads engine configuration from defaults, an optional YAML
// file and MSFLIX_-prefixed environment variables, in that order of
// precedence (later sources override earlier ones).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ErrMissingAPIKey is returned when no TMDB API key is configured.
var ErrMissingAPIKey = errors.New("missing TMDB API key (set MSFLIX_TMDB_API_KEY)")

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "MSFLIX_CONFIG"

// defaultConfigPaths are searched in order; the first file found is used.
var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds all engine configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	TMDB   TMDBConfig   `koanf:"tmdb"`
	Store  StoreConfig  `koanf:"store"`
	Reco   RecoConfig   `koanf:"reco"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// TMDBConfig holds catalog client settings.
type TMDBConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the badger database directory. Empty means in-memory.
	Path string `koanf:"path"`
}

// RecoConfig holds recommendation engine tunables.
type RecoConfig struct {
	MinRating       float64       `koanf:"min_rating"`
	MinVotes        int           `koanf:"min_votes"`
	MaxPoolSize     int           `koanf:"max_pool_size"`
	PoolCacheTTL    time.Duration `koanf:"pool_cache_ttl"`
	HistoryCapacity int           `koanf:"history_capacity"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 8 * time.Second,
		},
		Store: StoreConfig{
			Path: "data/reco",
		},
		Reco: RecoConfig{
			MinRating:       6.0,
			MinVotes:        200,
			MaxPoolSize:     120,
			PoolCacheTTL:    24 * time.Hour,
			HistoryCapacity: 25,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, config file and environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// MSFLIX_TMDB_API_KEY -> tmdb.api_key. Only the first underscore is a
	// section separator; the rest of the name keeps its underscores.
	err := k.Load(env.Provider("MSFLIX_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MSFLIX_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
