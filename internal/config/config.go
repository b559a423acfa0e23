// Package config holds loopnerd configuration: where the registry state
// lives, how the file lock behaves, and logging switches. Values come from
// an optional YAML file with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	// EnvStateDir overrides the state directory that holds
	// research/loops.json.
	EnvStateDir = "LOOPNERD_STATE_DIR"
	// EnvDebug enables debug logging when set to a non-empty value.
	EnvDebug = "LOOPNERD_DEBUG"
)

// Config holds all loopnerd configuration.
type Config struct {
	// StateDir is the directory the registry document lives under.
	StateDir string `yaml:"state_dir"`

	// Lock tunes the cross-process file lock.
	Lock LockConfig `yaml:"lock"`

	// Logging controls the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// LockConfig tunes the registry's sidecar file lock. Durations are strings
// ("10s", "25ms") so the YAML stays readable; unparseable or absent values
// fall back to the defaults.
type LockConfig struct {
	// Timeout bounds how long a mutating operation waits for the lock.
	Timeout string `yaml:"timeout"`

	// PollInterval is the retry interval while waiting.
	PollInterval string `yaml:"poll_interval"`

	// StaleAfter is the age past which a lock file left by a dead process
	// is considered abandoned and force-removed.
	StaleAfter string `yaml:"stale_after"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Lock timing defaults.
const (
	DefaultLockTimeout      = 10 * time.Second
	DefaultLockPollInterval = 25 * time.Millisecond
	DefaultLockStaleAfter   = 30 * time.Second
)

// TimeoutDuration returns the configured lock timeout, defaulting to 10s.
func (c LockConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultLockTimeout)
}

// PollIntervalDuration returns the configured poll interval, defaulting to
// 25ms.
func (c LockConfig) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, DefaultLockPollInterval)
}

// StaleAfterDuration returns the configured stale window, defaulting to 30s.
func (c LockConfig) StaleAfterDuration() time.Duration {
	return parseDuration(c.StaleAfter, DefaultLockStaleAfter)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StateDir: defaultStateDir(),
		Lock: LockConfig{
			Timeout:      "10s",
			PollInterval: "25ms",
			StaleAfter:   "30s",
		},
		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		c.StateDir = dir
	}
	if os.Getenv(EnvDebug) != "" {
		c.Logging.Debug = true
	}
}

// StorePath resolves the registry document path under the state directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.StateDir, "research", "loops.json")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loopnerd"
	}
	return filepath.Join(home, ".loopnerd")
}
