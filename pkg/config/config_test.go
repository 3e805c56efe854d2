package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magtomo/pkg/backend"
	"magtomo/pkg/tilt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, string(tilt.ModeDual), cfg.Scheme.Mode)
	assert.Equal(t, 40, cfg.Scheme.NTilt)
	assert.Equal(t, "sphere", cfg.Phantom.Shape)
	assert.Equal(t, 64, cfg.Phantom.BoxLengthPx)
	assert.Equal(t, backend.AlgorithmSIRT, cfg.Reconstruction.Algorithm)
	assert.Positive(t, cfg.Reconstruction.Workers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magtomo.yaml")
	body := []byte("scheme:\n  mode: quad\n  nTilt: 48\nreconstruction:\n  stepIterations: 25\n")
	require.NoError(t, os.WriteFile(path, body, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "quad", cfg.Scheme.Mode)
	assert.Equal(t, 48, cfg.Scheme.NTilt)
	assert.Equal(t, 25, cfg.Reconstruction.StepIterations)
	// Untouched fields keep their defaults.
	assert.Equal(t, 70.0, cfg.Scheme.Alpha)
	assert.Equal(t, 64, cfg.Phantom.BoxLengthPx)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "magtomo.yaml")

	cfg := DefaultConfig()
	cfg.Scheme.Mode = string(tilt.ModeDist)
	cfg.Scheme.DistN2 = 12
	cfg.Reconstruction.ThresholdMax = 0.55
	require.NoError(t, SaveConfig(cfg, path))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magtomo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheme: [broken"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSchemeParamsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheme.Mode = "rand"
	cfg.Scheme.Seed = 7

	p := cfg.SchemeParams()
	assert.Equal(t, tilt.ModeRand, p.Mode)
	assert.Equal(t, int64(7), p.Seed)

	scheme, err := tilt.Generate(p)
	require.NoError(t, err)
	assert.Len(t, scheme, cfg.Scheme.NTilt)
}
