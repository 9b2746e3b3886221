package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/svgmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iconkit.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := Load("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	bg, err := cfg.BackgroundValue()
	require.NoError(t, err)
	assert.True(t, gradient.IsTransparent(bg))
}

func TestConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
preset = "web"
color = "#111111"
size = 64.0
padding = 4.0
preset_files = ["a.yaml", "b.yaml"]
`)
	environ := map[string]string{
		"ICONKIT_COLOR":   "#222222",
		"ICONKIT_WORKERS": "3",
	}

	// file over defaults
	cfg, err := Load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Preset)
	assert.Equal(t, "#111111", cfg.Color)
	assert.Equal(t, 64.0, cfg.Size)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.PresetFiles)
	assert.Equal(t, "geometry", cfg.Measurer)

	// env over file
	cfg, err = Load(path, environ)
	require.NoError(t, err)
	assert.Equal(t, "#222222", cfg.Color)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "web", cfg.Preset)

	// flags over env, only when set
	fs := flag.NewFlagSet("iconkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-color", "#333333", "-padding", "0"}))
	flags.Apply(&cfg)

	assert.Equal(t, "#333333", cfg.Color)
	assert.Equal(t, 0.0, cfg.Padding)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "web", cfg.Preset)
	assert.Equal(t, 64.0, cfg.Size)
}

func TestConfig_Values(t *testing.T) {
	cfg := Default()
	cfg.Background = "linear-gradient(90deg, #ff0000 0%, #0000ff 100%)"
	cfg.Measurer = "surface"
	cfg.LogLevel = "debug"
	require.NoError(t, cfg.Validate())

	bg, err := cfg.BackgroundValue()
	require.NoError(t, err)
	assert.IsType(t, &gradient.Linear{}, bg)

	m, err := cfg.MeasurerValue()
	require.NoError(t, err)
	assert.IsType(t, svgmark.SurfaceMeasurer{}, m)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}

func TestConfig_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `unknown_key = 1`), map[string]string{})
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `size = "big"`), map[string]string{})
	assert.Error(t, err)

	_, err = Load("", map[string]string{"ICONKIT_WORKERS": "many"})
	assert.Error(t, err)

	_, err = Load("", map[string]string{"ICONKIT_MEASURER": "psychic"})
	assert.Error(t, err)

	_, err = Load("", map[string]string{"ICONKIT_BACKGROUND": "not-a-color"})
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.Error(t, err)
}
