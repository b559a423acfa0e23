package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockConfigDurations(t *testing.T) {
	t.Run("defaults on zero value", func(t *testing.T) {
		var c LockConfig
		assert.Equal(t, DefaultLockTimeout, c.TimeoutDuration())
		assert.Equal(t, DefaultLockPollInterval, c.PollIntervalDuration())
		assert.Equal(t, DefaultLockStaleAfter, c.StaleAfterDuration())
	})

	t.Run("parses configured values", func(t *testing.T) {
		c := LockConfig{Timeout: "3s", PollInterval: "50ms", StaleAfter: "2m"}
		assert.Equal(t, 3*time.Second, c.TimeoutDuration())
		assert.Equal(t, 50*time.Millisecond, c.PollIntervalDuration())
		assert.Equal(t, 2*time.Minute, c.StaleAfterDuration())
	})

	t.Run("garbage falls back to defaults", func(t *testing.T) {
		c := LockConfig{Timeout: "soon", PollInterval: "-5ms"}
		assert.Equal(t, DefaultLockTimeout, c.TimeoutDuration())
		assert.Equal(t, DefaultLockPollInterval, c.PollIntervalDuration())
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.StateDir)
		assert.Equal(t, "10s", cfg.Lock.Timeout)
	})

	t.Run("file values win over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "loopnerd.yaml")
		yaml := "state_dir: /var/lib/loopnerd\nlock:\n  timeout: 4s\nlogging:\n  debug: true\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/loopnerd", cfg.StateDir)
		assert.Equal(t, 4*time.Second, cfg.Lock.TimeoutDuration())
		assert.True(t, cfg.Logging.Debug)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "loopnerd.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\n  - ]["), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("state dir override wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "loopnerd.yaml")
		require.NoError(t, os.WriteFile(path, []byte("state_dir: /from/file\n"), 0o644))
		t.Setenv(EnvStateDir, "/from/env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/from/env", cfg.StateDir)
	})

	t.Run("debug override", func(t *testing.T) {
		t.Setenv(EnvDebug, "1")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Logging.Debug)
	})
}

func TestStorePath(t *testing.T) {
	cfg := &Config{StateDir: "/srv/state"}
	assert.Equal(t, filepath.Join("/srv/state", "research", "loops.json"), cfg.StorePath())
}
