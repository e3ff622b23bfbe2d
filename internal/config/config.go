// Package config loads the engine's YAML configuration file (SPEC_FULL.md
// §4.10), grounded on the teacher's config loader
// (_examples/udisondev-la2go/internal/config/config.go): a defaults-first
// struct, a LoadX function that falls back to defaults when the file is
// absent, and an environment-variable path override.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv is the environment variable that overrides the default
// config path, following the teacher's LA2GO_GAME_CONFIG-style pattern
// (SPEC_FULL.md §4.10).
const ConfigPathEnv = "METER_CONFIG"

// DefaultConfigPath is used when ConfigPathEnv is unset.
const DefaultConfigPath = "config/meter.yaml"

// Config holds every tunable named in spec.md §4.9 ("Two timers run inside
// the loop") and §4.8 (stats-API client) plus the local-players cache path
// and log level.
type Config struct {
	// SnapshotIntervalMS is the normal-mode snapshot cadence (spec.md §4.9
	// default 500ms).
	SnapshotIntervalMS int `yaml:"snapshot_interval_ms"`

	// LowPerformanceSnapshotIntervalMS is used instead of
	// SnapshotIntervalMS when LowPerformanceMode is set (spec.md §4.9:
	// "1500 ms in low-performance mode").
	LowPerformanceSnapshotIntervalMS int `yaml:"low_performance_snapshot_interval_ms"`

	// LowPerformanceMode switches the snapshot timer to the slower cadence.
	LowPerformanceMode bool `yaml:"low_performance_mode"`

	// PartyUpdateIntervalMS is the party-update cadence (spec.md §4.9:
	// "Every 2 s").
	PartyUpdateIntervalMS int `yaml:"party_update_interval_ms"`

	// HeartbeatIntervalMS is the stats-service heartbeat cadence (spec.md
	// §4.9: "5 min").
	HeartbeatIntervalMS int `yaml:"heartbeat_interval_ms"`

	Region    string `yaml:"region"`
	ClientID  string `yaml:"client_id"`
	Version   string `yaml:"version"`

	StatsAPIBaseURL     string `yaml:"stats_api_base_url"`
	StatsAPITimeoutMS   int    `yaml:"stats_api_timeout_ms"`

	// LocalPlayersCachePath is the {character_id: name} cache file (spec.md
	// §6).
	LocalPlayersCachePath string `yaml:"local_players_cache_path"`

	// LogLevel: debug, info, warn, error (default: info), matching the
	// teacher's LoginServer.LogLevel field.
	LogLevel string `yaml:"log_level"`
}

// SnapshotInterval returns the active snapshot cadence for the current
// performance mode (spec.md §4.9).
func (c Config) SnapshotInterval() time.Duration {
	if c.LowPerformanceMode {
		return time.Duration(c.LowPerformanceSnapshotIntervalMS) * time.Millisecond
	}
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

func (c Config) PartyUpdateInterval() time.Duration {
	return time.Duration(c.PartyUpdateIntervalMS) * time.Millisecond
}

func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

func (c Config) StatsAPITimeout() time.Duration {
	return time.Duration(c.StatsAPITimeoutMS) * time.Millisecond
}

// Default returns Config with sensible defaults (spec.md §4.9 timer
// defaults), matching the teacher's DefaultLoginServer shape.
func Default() Config {
	return Config{
		SnapshotIntervalMS:               500,
		LowPerformanceSnapshotIntervalMS: 1500,
		PartyUpdateIntervalMS:            2000,
		HeartbeatIntervalMS:              5 * 60 * 1000,
		Region:                           "",
		ClientID:                         "meter",
		Version:                          "dev",
		StatsAPIBaseURL:                  "http://127.0.0.1:8080",
		StatsAPITimeoutMS:                5000,
		LocalPlayersCachePath:            "local_players.yaml",
		LogLevel:                         "info",
	}
}

// Load reads YAML config from path, falling back to Default() when the
// file does not exist (spec.md §7: filesystem failure is logged and
// continues; here a missing file is expected on first run, not an error).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePath returns the configured path, honoring ConfigPathEnv
// (SPEC_FULL.md §4.10).
func ResolvePath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return DefaultConfigPath
}
