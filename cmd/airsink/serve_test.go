package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/airsink"
	"github.com/bluenviron/airsink/internal/config"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airsink.yml")
	err := os.WriteFile(path, []byte("name: LIVINGROOM\nport: 7100\n"), 0o644)
	require.NoError(t, err)

	cmd := newRootCmd()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	err = serveCmd.ParseFlags([]string{"--config", path, "--port", "7200", "--verbose"})
	require.NoError(t, err)

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	require.Equal(t, "LIVINGROOM", cfg.Name)
	require.Equal(t, 7200, cfg.Port)
	require.True(t, cfg.Verbose)
	require.Equal(t, "airsink.key", cfg.DeviceKey)
}

func TestKeyGenerationMode(t *testing.T) {
	mode, err := keyGenerationMode("pool")
	require.NoError(t, err)
	require.Equal(t, airsink.KeyGenerationModePool, mode)

	mode, err = keyGenerationMode("inline")
	require.NoError(t, err)
	require.Equal(t, airsink.KeyGenerationModeInline, mode)

	_, err = keyGenerationMode("threads")
	require.EqualError(t, err, "invalid key generation mode: 'threads'")
}

func TestServeWithoutDeviceKey(t *testing.T) {
	cfg := config.Default()
	cfg.DeviceKey = filepath.Join(t.TempDir(), "missing.key")

	err := serve(context.Background(), cfg, newLogger(os.Stderr, false))
	require.ErrorContains(t, err, "unable to load device key")
	require.ErrorIs(t, err, os.ErrNotExist)
}
