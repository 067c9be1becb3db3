package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linux-particleengine/internal/batch"
	"linux-particleengine/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsNeedSomethingToShow(t *testing.T) {
	cfg := Default()
	assert.Equal(t, batch.DefaultCapacity, cfg.Capacity())
	assert.ErrorIs(t, cfg.Validate(), ErrConfig)

	cfg.Effect = "particles/fire.json"
	assert.NoError(t, cfg.Validate())
}

func TestFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
effect = "particles/rain.json"
debug = true

[window]
width = 800

[simulation]
rate = 30
seed = 7

[log]
level = "debug"
`), 0644))

	cfg, err := Parse("viewer", []string{"-config", path, "-width", "1024", "-rate=120", "-log", "info"})
	require.NoError(t, err)
	assert.Equal(t, "particles/rain.json", cfg.Effect)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, float32(120), cfg.Simulation.Rate)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, utils.LevelInfo, cfg.LogLevel())
}

func TestPositionalEffect(t *testing.T) {
	cfg, err := Parse("viewer", []string{"-fovy", "60", "particles/snow.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "particles/snow.yaml", cfg.Effect)
	assert.Equal(t, float32(60), cfg.Camera.Fovy)
}

func TestInvalidSettings(t *testing.T) {
	_, err := Parse("viewer", []string{"-effect", "a.json", "-rate", "0"})
	assert.ErrorIs(t, err, ErrConfig)
	_, err = Parse("viewer", []string{"-effect", "a.json", "-log", "loud"})
	assert.ErrorIs(t, err, ErrConfig)
	_, err = Parse("viewer", []string{"-effect", "a.json", "-batch-vertices", "2"})
	assert.ErrorIs(t, err, ErrConfig)
	_, err = Parse("viewer", []string{"-config", filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)

	cfg := Default()
	err = cfg.Decode(strings.NewReader("[window]\ncolour = 3\n"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Scene = "scene.json"
	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))

	decoded := Config{}
	require.NoError(t, decoded.Decode(&buf))
	assert.Equal(t, cfg, decoded)
}
