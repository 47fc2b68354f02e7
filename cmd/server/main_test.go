package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node:\n  name: alpha\nserver:\n  port: 3002\n"), 0644))

	t.Run("file values without flags", func(t *testing.T) {
		cfg, err := loadConfig(path, "", 0, "")
		require.NoError(t, err)
		assert.Equal(t, "alpha", cfg.Node.Name)
		assert.Equal(t, 3002, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("flags win over file", func(t *testing.T) {
		cfg, err := loadConfig(path, "beta", 4000, "debug")
		require.NoError(t, err)
		assert.Equal(t, "beta", cfg.Node.Name)
		assert.Equal(t, 4000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("invalid file", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(broken, []byte("server: ["), 0644))

		_, err := loadConfig(broken, "", 0, "")
		assert.Error(t, err)
	})
}

func TestNodeLogger(t *testing.T) {
	cfg, err := loadConfig("", "alpha", 0, "warn")
	require.NoError(t, err)

	var buf bytes.Buffer
	log, err := nodeLogger(zerolog.New(&buf), cfg)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"node":"alpha"`)
	assert.Contains(t, buf.String(), "shown")

	cfg.Log.Level = "loud"
	_, err = nodeLogger(zerolog.New(&buf), cfg)
	assert.Error(t, err)
}
