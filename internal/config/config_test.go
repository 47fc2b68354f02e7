package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when the file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, Default(), cfg)
		assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
		assert.Equal(t, 10*time.Second, cfg.SyncInterval())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
node:
  name: alpha
server:
  port: 3002
storage:
  backend: file
  path: /var/lib/ledger
validators:
  - 0xabc
  - 0xdef
peers:
  - http://localhost:3003
sync:
  enabled: true
  interval: 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "alpha", cfg.Node.Name)
		assert.Equal(t, 3002, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "file", cfg.Storage.Backend)
		assert.Equal(t, "/var/lib/ledger", cfg.Storage.Path)
		assert.Equal(t, []string{"0xabc", "0xdef"}, cfg.Validators)
		assert.Equal(t, []string{"http://localhost:3003"}, cfg.Peers)
		assert.True(t, cfg.Sync.Enabled)
		assert.Equal(t, 5*time.Second, cfg.SyncInterval())
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("node:\n  name: alpha\n"), 0644))

		t.Setenv("NODE_NAME", "beta")
		t.Setenv("SERVER_PORT", "4000")
		t.Setenv("VALIDATORS", " 0xabc, ,0xdef ")
		t.Setenv("PEERS", "http://a:1,http://b:2")
		t.Setenv("SYNC_ENABLED", "1")
		t.Setenv("SYNC_INTERVAL", "not-a-number")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "beta", cfg.Node.Name)
		assert.Equal(t, 4000, cfg.Server.Port)
		assert.Equal(t, []string{"0xabc", "0xdef"}, cfg.Validators)
		assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.Peers)
		assert.True(t, cfg.Sync.Enabled)
		assert.Equal(t, 10, cfg.Sync.Interval)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
