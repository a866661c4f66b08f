// Package segment holds the model-independent parts of the segmentation
// adapters: model geometry, input normalisation and probability decoding.
package segment

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ModelConfig describes the tensors of an exported cell segmentation network.
// It is read from a JSON file next to the model.
type ModelConfig struct {
	Architecture   string `json:"architecture"`   // eg "cellpose-cyto"
	Width          int    `json:"width"`          // network input width
	Height         int    `json:"height"`         // network input height
	Channels       int    `json:"channels"`       // input channels, the first carries the image
	InputName      string `json:"inputName"`      // eg "input"
	OutputName     string `json:"outputName"`     // eg "output"
	OutputChannels int    `json:"outputChannels"` // eg 3 for flow y, flow x, cell probability
	ProbChannel    int    `json:"probChannel"`    // index of the cell probability channel
	DiameterInput  string `json:"diameterInput"`  // optional scalar input fed with the diameter hint

	// DefaultDiameter is the object diameter the network was trained at. It
	// feeds DiameterInput when no hint is given.
	DefaultDiameter float64 `json:"defaultDiameter"`
}

// TrainedDiameter is the object size of the stock cyto networks.
const TrainedDiameter = 30

// DefaultModelConfig matches a two-channel cyto network exported at 256x256.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Architecture:   "cellpose-cyto",
		Width:          256,
		Height:         256,
		Channels:       2,
		InputName:      "input",
		OutputName:     "output",
		OutputChannels: 3,
		ProbChannel:    2,

		DefaultDiameter: TrainedDiameter,
	}
}

// ConfigPath is the sidecar file of a model: the model path with its
// extension replaced by .json.
func ConfigPath(modelPath string) string {
	if i := strings.LastIndex(modelPath, "."); i > strings.LastIndex(modelPath, string(os.PathSeparator)) {
		return modelPath[:i] + ".json"
	}
	return modelPath + ".json"
}

// LoadModelConfig reads a sidecar over DefaultModelConfig.
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := DefaultModelConfig()
	if err := json.Unmarshal(b, &config); err != nil {
		return nil, fmt.Errorf("failed to parse model config '%s': %w", filename, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("model config '%s': %w", filename, err)
	}
	return &config, nil
}

func (c *ModelConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid input size %dx%d", c.Width, c.Height)
	case c.Channels <= 0:
		return fmt.Errorf("invalid channel count %d", c.Channels)
	case c.OutputChannels <= 0:
		return fmt.Errorf("invalid output channel count %d", c.OutputChannels)
	case c.ProbChannel < 0 || c.ProbChannel >= c.OutputChannels:
		return fmt.Errorf("probability channel %d out of %d output channels", c.ProbChannel, c.OutputChannels)
	case c.InputName == "" || c.OutputName == "":
		return fmt.Errorf("input and output names are required")
	case c.DefaultDiameter <= 0:
		return fmt.Errorf("invalid default diameter %v", c.DefaultDiameter)
	}
	return nil
}

// InputLen is the number of floats of the input tensor.
func (c *ModelConfig) InputLen() int {
	return c.Channels * c.Width * c.Height
}

// OutputLen is the number of floats of the output tensor.
func (c *ModelConfig) OutputLen() int {
	return c.OutputChannels * c.Width * c.Height
}
