package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
input: /data/hela
outputDir: /tmp/out
mode: metrics
fps: 20
segmenter:
  kind: otsu
  invert: true
rules:
  fragmentArea: 80
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/hela", cfg.Input)
	require.Equal(t, ModeMetrics, cfg.Mode)
	require.Equal(t, 20.0, cfg.FPS)
	require.Equal(t, SegmenterOtsu, cfg.Segmenter.Kind)
	require.True(t, cfg.Segmenter.Invert)
	require.Equal(t, 80, cfg.Rules.FragmentArea)
	// untouched keys keep their defaults
	require.Equal(t, 0.8, cfg.Rules.DeadCircularity)
	require.Equal(t, "XVID", cfg.Codec)
	require.Zero(t, cfg.Diameter)
	require.NoError(t, cfg.Validate())
}

func TestModeDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, -0.8, cfg.CellProb())
	require.Equal(t, 30.0, cfg.DiameterHint())

	cfg.Mode = ModeMetrics
	require.Equal(t, 0.0, cfg.CellProb())
	require.Zero(t, cfg.DiameterHint())

	cfg, err := Load(writeFile(t, "mode: metrics\ndiameter: 17\nsegmenter:\n  cellprobThreshold: -0.8\n"))
	require.NoError(t, err)
	require.Equal(t, -0.8, cfg.CellProb())
	require.Equal(t, 17.0, cfg.DiameterHint())

	cfg, err = Load(writeFile(t, "segmenter:\n  cellprobThreshold: 0\n"))
	require.NoError(t, err)
	require.Equal(t, ModeClassify, cfg.Mode)
	require.Equal(t, 0.0, cfg.CellProb())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "input: x\ncolour: red\n"))
	require.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Input = "frames"
		c.Segmenter.Model = "cellpose.onnx"
		return c
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"no input":       func(c *Config) { c.Input = "" },
		"no output":      func(c *Config) { c.OutputDir = "" },
		"bad mode":       func(c *Config) { c.Mode = "count" },
		"negative fps":   func(c *Config) { c.FPS = -1 },
		"bad codec":      func(c *Config) { c.Codec = "H264X" },
		"neg diameter":   func(c *Config) { c.Diameter = -3 },
		"onnx no model":  func(c *Config) { c.Segmenter.Model = "" },
		"bad segmenter":  func(c *Config) { c.Segmenter.Kind = "sam" },
		"negative rules": func(c *Config) { c.Rules.FragmentArea = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}
