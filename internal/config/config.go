// Package config holds the run configuration of the processing commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/cellframe/internal/classify"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeClassify Mode = "classify" // four morphological categories per frame
	ModeMetrics  Mode = "metrics"  // object count, area and brightness only
)

const (
	SegmenterONNX = "onnx"
	SegmenterOtsu = "otsu"
)

var ErrInvalid = errors.New("invalid configuration")

type Segmenter struct {
	Kind              string  `yaml:"kind"`              // onnx or otsu
	Model             string   `yaml:"model"`             // path to the .onnx file
	ModelConfig       string   `yaml:"modelConfig"`       // sidecar path, defaults to the model path with .json
	Library           string   `yaml:"library"`           // path to the onnxruntime shared library
	CellProbThreshold *float64 `yaml:"cellprobThreshold"` // onnx: probability logit above which a pixel is foreground
	Invert            bool     `yaml:"invert"`            // otsu: objects are darker than the background
}

// Per-mode segmentation defaults. Metrics mode gives no diameter hint.
const (
	ClassifyCellProb = -0.8
	ClassifyDiameter = 30
	MetricsCellProb  = 0.0
)

type Config struct {
	Input     string         `yaml:"input"`     // frame directory or video file
	OutputDir string         `yaml:"outputDir"` // created if missing
	Mode      Mode           `yaml:"mode"`
	FPS       float64        `yaml:"fps"` // 0 picks 10, or 20 for video input in metrics mode
	Codec     string         `yaml:"codec"`
	Diameter  float64        `yaml:"diameter"` // expected object diameter in pixels, 0 picks the mode default
	Segmenter Segmenter      `yaml:"segmenter"`
	Rules     classify.Rules `yaml:"rules"`
	Caption   bool           `yaml:"caption"`
	SaveMasks bool           `yaml:"saveMasks"`
	Postgres  string         `yaml:"postgres"` // optional DSN for the measurement store
	LogLevel  string         `yaml:"logLevel"`
}

func Default() Config {
	return Config{
		OutputDir: "output",
		Mode:      ModeClassify,
		Codec:     "XVID",
		Segmenter: Segmenter{Kind: SegmenterONNX},
		Rules:    classify.DefaultRules(),
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	invalid := func(format string, a ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, a...))
	}
	if c.Input == "" {
		return invalid("no input given")
	}
	if c.OutputDir == "" {
		return invalid("no output directory given")
	}
	switch c.Mode {
	case ModeClassify, ModeMetrics:
	default:
		return invalid("unknown mode %q", c.Mode)
	}
	if c.FPS < 0 {
		return invalid("fps must not be negative")
	}
	if len(c.Codec) != 4 {
		return invalid("codec %q is not a fourcc", c.Codec)
	}
	if c.Diameter < 0 {
		return invalid("diameter must not be negative")
	}
	switch c.Segmenter.Kind {
	case SegmenterONNX:
		if c.Segmenter.Model == "" {
			return invalid("onnx segmenter needs a model path")
		}
	case SegmenterOtsu:
	default:
		return invalid("unknown segmenter %q", c.Segmenter.Kind)
	}
	if c.Rules.FragmentArea < 0 {
		return invalid("fragment area must not be negative")
	}
	return nil
}

// CellProb is the configured probability threshold, else the mode default.
func (c *Config) CellProb() float64 {
	if c.Segmenter.CellProbThreshold != nil {
		return *c.Segmenter.CellProbThreshold
	}
	if c.Mode == ModeMetrics {
		return MetricsCellProb
	}
	return ClassifyCellProb
}

// DiameterHint is the configured diameter, else the mode default. 0 means the
// segmenter gets no hint.
func (c *Config) DiameterHint() float64 {
	if c.Diameter > 0 {
		return c.Diameter
	}
	if c.Mode == ModeMetrics {
		return 0
	}
	return ClassifyDiameter
}
